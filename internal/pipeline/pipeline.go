package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
)

// Submitter hands one accepted observation to the archive.
type Submitter interface {
	Submit(ctx context.Context, sub domain.Submission) error
}

// Mirror publishes a copy of each submission to a secondary sink.
type Mirror interface {
	Publish(ctx context.Context, sub domain.Submission) error
}

type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Summary counts the outcomes of one packet.
type Summary struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Skipped   int `json:"skipped"`
	Ignored   int `json:"ignored"`
	Failed    int `json:"failed"`
}

type packetIDKey struct{}

// WithPacketID attaches a packet id that the processor adds to its log lines.
func WithPacketID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, packetIDKey{}, id)
}

func packetID(ctx context.Context) string {
	id, _ := ctx.Value(packetIDKey{}).(string)
	return id
}

// Processor runs every message of a packet through classification, decoding
// and submission, one message at a time and in input order.
type Processor struct {
	builder     *SubmissionBuilder
	submitter   Submitter
	mirror      Mirror
	logger      *slog.Logger
	metrics     *observability.Metrics
	dumpPackets bool
}

// Option configures optional Processor behavior.
type Option func(*Processor)

// WithMirror enables publishing each submission to m.
func WithMirror(m Mirror) Option {
	return func(p *Processor) { p.mirror = m }
}

// WithPacketDump logs the whole inbound packet at info level.
func WithPacketDump(enabled bool) Option {
	return func(p *Processor) { p.dumpPackets = enabled }
}

// New creates a Processor with the given stages and observability.
func New(b *SubmissionBuilder, s Submitter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Processor {
	p := &Processor{
		builder:   b,
		submitter: s,
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness delegates to the submitter when it can report readiness.
func (p *Processor) CheckReadiness(ctx context.Context) error {
	if rc, ok := p.submitter.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// Process handles one packet to completion. Per-message failures are logged
// and counted; they never abort the remaining messages.
func (p *Processor) Process(ctx context.Context, packet domain.Packet) Summary {
	start := time.Now()
	logger := p.logger
	if id := packetID(ctx); id != "" {
		logger = logger.With("packet_id", id)
	}

	p.metrics.PacketsReceived.Inc()
	logger.Info("packet received",
		"station_id", packet.StationID,
		"receiver", packet.Receiver.Description,
		"messages", len(packet.Msgs),
	)
	if p.dumpPackets {
		logger.Info("packet dump", "packet", packet)
	}

	summary := Summary{Total: len(packet.Msgs)}
	for i, msg := range packet.Msgs {
		sub, err := p.builder.Build(msg)
		if err != nil {
			logger.Warn("decode failed, skipping message", "error", err, "index", i)
			p.metrics.Messages.WithLabelValues("failed").Inc()
			summary.Failed++
			continue
		}

		obs := sub.Observation
		switch obs.Kind {
		case domain.Unrecognized:
			logger.Debug("message skipped", "index", i, "identifier", obs.Identifier.String())
			summary.Skipped++
		case domain.Excluded:
			logger.Debug("station ignored", "index", i, "mmsi", obs.Station.MMSI)
			summary.Ignored++
		case domain.Accepted:
			p.submit(ctx, logger, sub)
			summary.Submitted++
		}
		p.metrics.Messages.WithLabelValues(outcomeLabel(obs.Kind)).Inc()
	}

	p.metrics.PacketProcessingDuration.Observe(time.Since(start).Seconds())
	logger.Info("packet processed",
		"total", summary.Total,
		"submitted", summary.Submitted,
		"skipped", summary.Skipped,
		"ignored", summary.Ignored,
		"failed", summary.Failed,
	)
	return summary
}

// submit hands sub to the archive and then to the mirror. Downstream errors
// are logged and counted only.
func (p *Processor) submit(ctx context.Context, logger *slog.Logger, sub domain.Submission) {
	station := sub.Observation.Station
	if err := p.submitter.Submit(ctx, sub); err != nil {
		logger.Error("submission failed", "error", err, "mmsi", station.MMSI, "rxtime", station.RxTime)
		p.metrics.Submissions.WithLabelValues("error").Inc()
	} else {
		logger.Info("observation submitted", "mmsi", station.MMSI, "fields", len(sub.PublishedFields))
		p.metrics.Submissions.WithLabelValues("success").Inc()
	}

	if p.mirror == nil {
		return
	}
	if err := p.mirror.Publish(ctx, sub); err != nil {
		logger.Warn("mirror publish failed", "error", err, "mmsi", station.MMSI)
		p.metrics.MirrorErrors.Inc()
		return
	}
	p.metrics.MirrorPublished.Inc()
}

func outcomeLabel(k domain.ObservationKind) string {
	if k == domain.Accepted {
		return "submitted"
	}
	return k.String()
}
