package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/couchcryptid/ais-weather-feeder/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxPacketBytes bounds a decompressed packet body. AIS-catcher batches a few
// seconds of traffic per POST, well below this.
const maxPacketBytes = 8 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PacketProcessor handles one decoded AIS-catcher packet.
type PacketProcessor interface {
	ReadinessChecker
	Process(ctx context.Context, packet domain.Packet) pipeline.Summary
}

// Server accepts AIS-catcher packets and exposes health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	processor  PacketProcessor
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /aiscatcher, /healthz, /readyz, and /metrics routes.
// Write timeout is left open: a packet is answered only after every
// submission it triggers has completed.
func NewServer(addr string, processor PacketProcessor, metrics *observability.Metrics, logger *slog.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		processor: processor,
		metrics:   metrics,
		logger:    logger,
	}

	r.HandleFunc("/aiscatcher", s.handlePacket).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady(processor)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type packetResponse struct {
	Message string `json:"message"`
	pipeline.Summary
}

func (s *Server) handlePacket(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := s.logger.With("packet_id", id)

	packet, err := decodePacket(r)
	if err != nil {
		logger.Warn("rejecting packet", "error", err, "remote", r.RemoteAddr)
		s.metrics.PacketErrors.Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// A caller that disconnects mid-packet does not cancel its submissions.
	ctx := pipeline.WithPacketID(context.WithoutCancel(r.Context()), id)
	summary := s.processor.Process(ctx, packet)

	writeJSON(w, http.StatusOK, packetResponse{
		Message: fmt.Sprintf("Processed %d messages", summary.Submitted),
		Summary: summary,
	})
}

// decodePacket reads the JSON body, transparently undoing gzip or zstd
// content encoding. Numbers are kept as literals so integer fields never
// pass through float64.
func decodePacket(r *http.Request) (domain.Packet, error) {
	body, err := decodedBody(r)
	if err != nil {
		return domain.Packet{}, err
	}
	defer body.Close()

	dec := json.NewDecoder(io.LimitReader(body, maxPacketBytes))
	dec.UseNumber()

	var packet domain.Packet
	if err := dec.Decode(&packet); err != nil {
		return domain.Packet{}, fmt.Errorf("decode packet: %w", err)
	}
	return packet, nil
}

func decodedBody(r *http.Request) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return r.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		return zr, nil
	case "zstd":
		zr, err := zstd.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("open zstd body: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", enc)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
