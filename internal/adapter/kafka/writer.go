package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/config"
	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer mirrors accepted observations to a Kafka topic.
// It implements pipeline.Mirror.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured mirror topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one submission and writes it synchronously. Keys are
// the MMSI so each station's observations stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, sub domain.Submission) error {
	msg, err := serializeToMessage(sub)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// observationRecord is the mirror's wire format.
type observationRecord struct {
	MMSI        uint64         `json:"mmsi"`
	StationName string         `json:"station_name"`
	Time        time.Time      `json:"time"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	SignalPower *float64       `json:"signal_power,omitempty"`
	Type        uint64         `json:"type"`
	DAC         *uint64        `json:"dac,omitempty"`
	FID         *uint64        `json:"fid,omitempty"`
	Fields      map[string]any `json:"fields"`
	ReceivedAt  time.Time      `json:"received_at"`
}

// serializeToMessage marshals a submission into a Kafka message.
func serializeToMessage(sub domain.Submission) (kafkago.Message, error) {
	obs := sub.Observation
	rec := observationRecord{
		MMSI:        obs.Station.MMSI,
		StationName: argValue(sub.Args, domain.KeyStationID),
		Time:        obs.Station.RxTime.UTC(),
		Latitude:    obs.Station.Latitude,
		Longitude:   obs.Station.Longitude,
		SignalPower: obs.Station.SignalPower,
		Type:        obs.Identifier.Type,
		DAC:         obs.Identifier.DAC,
		FID:         obs.Identifier.FID,
		Fields:      make(map[string]any, len(sub.PublishedFields)),
		ReceivedAt:  obs.ReceivedAt.UTC(),
	}
	for _, f := range sub.PublishedFields {
		rec.Fields[f.Name] = f.Value
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatUint(rec.MMSI, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "message_type", Value: []byte(obs.Identifier.String())},
			{Key: "received_at", Value: []byte(rec.ReceivedAt.Format(time.RFC3339))},
		},
	}, nil
}

func argValue(args []domain.QueryArg, key string) string {
	for _, a := range args {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}
