package pipeline

import (
	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
)

// Settings is the immutable per-process configuration the builder applies to
// every message. It is built once at startup and shared across packets.
type Settings struct {
	Rules     *domain.AcceptanceTable
	Publish   domain.PublishConfig
	Stations  domain.StationNameTable
	AuthorKey string
}

// SubmissionBuilder turns raw messages into submissions using domain
// classification, the publish pipeline and the assembler.
type SubmissionBuilder struct {
	settings Settings
}

// NewSubmissionBuilder creates a SubmissionBuilder. A nil rule table accepts nothing.
func NewSubmissionBuilder(settings Settings) *SubmissionBuilder {
	if settings.Rules == nil {
		settings.Rules, _ = domain.NewAcceptanceTable(nil)
	}
	return &SubmissionBuilder{settings: settings}
}

// Build classifies m. For accepted observations the returned submission
// carries the assembled query arguments; for skipped and ignored ones only
// the observation is set.
func (b *SubmissionBuilder) Build(m domain.RawMessage) (domain.Submission, error) {
	obs, err := domain.Classify(m, b.settings.Rules)
	if err != nil {
		return domain.Submission{}, err
	}
	sub := domain.Submission{Observation: obs}
	if obs.Kind != domain.Accepted {
		return sub, nil
	}

	sub.PublishedFields = domain.FilterAndRename(obs.Weather.Fields(), b.settings.Publish)
	sub.Args = domain.Assemble(obs.Station, sub.PublishedFields, b.settings.Stations, b.settings.AuthorKey)
	return sub, nil
}
