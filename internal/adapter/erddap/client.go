package erddap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/goccy/go-json"
)

// ErrNotFound means ERDDAP rejected the insert with 404: the dataset URL is
// wrong or a query key is not a column of the dataset.
var ErrNotFound = errors.New("erddap: dataset or variable not found")

// StatusError is returned for any other non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("erddap: unexpected status %d: %s", e.StatusCode, e.Body)
}

// InsertResponse is the JSON document ERDDAP returns for a successful insert.
type InsertResponse struct {
	Status           string  `json:"status"`
	NRowsReceived    int     `json:"nRowsReceived"`
	StringTimestamp  string  `json:"stringTimestamp"`
	NumericTimestamp float64 `json:"numericTimestamp"`
}

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 512

// Client submits observations to an ERDDAP dataset through its HTTP GET
// ".insert" endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Client for the dataset at datasetURL, e.g.
// https://host/erddap/tabledap/ais_weather. A zero timeout leaves requests unbounded.
func NewClient(datasetURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint: insertEndpoint(datasetURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

func insertEndpoint(datasetURL string) string {
	u := strings.TrimRight(datasetURL, "/")
	if strings.HasSuffix(u, ".insert") {
		return u
	}
	return u + ".insert"
}

// Submit implements pipeline.Submitter.
func (c *Client) Submit(ctx context.Context, sub domain.Submission) error {
	resp, err := c.Insert(ctx, sub.Args)
	if err != nil {
		return err
	}
	c.logger.Debug("erddap insert accepted",
		"mmsi", sub.Observation.Station.MMSI,
		"status", resp.Status,
		"rows", resp.NRowsReceived,
		"timestamp", resp.StringTimestamp,
	)
	return nil
}

// Insert sends args as one ".insert" request, preserving their order.
func (c *Client) Insert(ctx context.Context, args []domain.QueryArg) (InsertResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+domain.EncodeQuery(args), nil)
	if err != nil {
		return InsertResponse{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return InsertResponse{}, fmt.Errorf("insert request to %s: %w", c.endpoint, redact(err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return InsertResponse{}, ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return InsertResponse{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out InsertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return InsertResponse{}, fmt.Errorf("decode insert response: %w", err)
	}
	return out, nil
}

// redact drops the request URL from transport errors; the query carries the
// author credential.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
