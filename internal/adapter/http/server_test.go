package http_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/ais-weather-feeder/internal/adapter/http"
	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/couchcryptid/ais-weather-feeder/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePacket = `{
  "protocol": "jsonaiscatcher",
  "encodetime": "20230615120001",
  "stationid": "SOLENT-RX1",
  "receiver": {"description": "AIS-catcher v0.61", "version": 61},
  "device": {"product": "RTL2838UHIDIR"},
  "msgs": [
    {"type": 8, "dac": 1, "fid": 31, "mmsi": 992351234, "rxtime": "20230615120000", "wspeed": 12},
    {"type": 1, "mmsi": 235009802}
  ]
}`

type mockProcessor struct {
	packets  []domain.Packet
	ctxErr   error
	summary  pipeline.Summary
	readyErr error
}

func (m *mockProcessor) Process(ctx context.Context, packet domain.Packet) pipeline.Summary {
	m.packets = append(m.packets, packet)
	m.ctxErr = ctx.Err()
	return m.summary
}

func (m *mockProcessor) CheckReadiness(_ context.Context) error { return m.readyErr }

func newTestServer(proc *mockProcessor) *httpadapter.Server {
	return httpadapter.NewServer(":0", proc, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func postPacket(t *testing.T, srv *httpadapter.Server, body io.Reader, encoding string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/aiscatcher", body)
	req.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestPostPacket_ReturnsSummary(t *testing.T) {
	proc := &mockProcessor{summary: pipeline.Summary{Total: 2, Submitted: 1, Skipped: 1}}
	srv := newTestServer(proc)

	rec := postPacket(t, srv, strings.NewReader(samplePacket), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Processed 1 messages", body["message"])
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["submitted"])
	assert.EqualValues(t, 1, body["skipped"])
	assert.EqualValues(t, 0, body["ignored"])
	assert.EqualValues(t, 0, body["failed"])

	require.Len(t, proc.packets, 1)
	packet := proc.packets[0]
	assert.Equal(t, "SOLENT-RX1", packet.StationID)
	assert.Equal(t, "AIS-catcher v0.61", packet.Receiver.Description)
	require.Len(t, packet.Msgs, 2)
	assert.Equal(t, "992351234", fmt.Sprint(packet.Msgs[0]["mmsi"]), "numbers are kept as literals")
}

func TestPostPacket_ProcessingIgnoresCallerCancellation(t *testing.T) {
	proc := &mockProcessor{}
	srv := newTestServer(proc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/aiscatcher", strings.NewReader(samplePacket)).WithContext(ctx)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, proc.packets, 1)
	assert.NoError(t, proc.ctxErr)
}

func TestPostPacket_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(samplePacket))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	proc := &mockProcessor{}
	rec := postPacket(t, newTestServer(proc), &buf, "gzip")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proc.packets, 1)
	assert.Len(t, proc.packets[0].Msgs, 2)
}

func TestPostPacket_Zstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(samplePacket), nil)
	require.NoError(t, enc.Close())

	proc := &mockProcessor{}
	rec := postPacket(t, newTestServer(proc), bytes.NewReader(compressed), "zstd")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, proc.packets, 1)
}

func TestPostPacket_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		encoding string
	}{
		{"malformed json", `{"msgs": [`, ""},
		{"empty body", "", ""},
		{"wrong msgs type", `{"msgs": "nope"}`, ""},
		{"bad gzip stream", "not gzip", "gzip"},
		{"unknown encoding", samplePacket, "br"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &mockProcessor{}
			rec := postPacket(t, newTestServer(proc), strings.NewReader(tt.body), tt.encoding)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, proc.packets)
		})
	}
}

func TestPacketRouteRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockProcessor{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/aiscatcher", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockProcessor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockProcessor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockProcessor{readyErr: fmt.Errorf("erddap circuit breaker is open")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "erddap circuit breaker is open", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockProcessor{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
