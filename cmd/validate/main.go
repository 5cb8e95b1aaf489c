// Command validate dry-runs an AIS-catcher packet against a feeder
// configuration. It runs the real processing pipeline with a submitter that
// records instead of sending, then prints the ERDDAP queries that would have
// been issued and the per-outcome counts. Nothing is sent anywhere.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -config ~/.config/erddap-feeder/default-config.toml \
//	  -packet data/mock/aiscatcher_packet.json
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/ais-weather-feeder/internal/config"
	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/couchcryptid/ais-weather-feeder/internal/observability"
	"github.com/couchcryptid/ais-weather-feeder/internal/pipeline"
	"github.com/goccy/go-json"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// recordingSubmitter captures submissions in arrival order.
type recordingSubmitter struct {
	submissions []domain.Submission
}

func (r *recordingSubmitter) Submit(_ context.Context, sub domain.Submission) error {
	r.submissions = append(r.submissions, sub)
	return nil
}

func main() {
	configPath := flag.String("config", "", "feeder configuration file (default location when empty)")
	packetPath := flag.String("packet", "data/mock/aiscatcher_packet.json", "AIS-catcher packet JSON")
	showKey := flag.Bool("show-key", false, "print the author key instead of redacting it")
	verbose := flag.Bool("v", false, "log pipeline activity to stderr")
	flag.Parse()

	if code := run(*configPath, *packetPath, *showKey, *verbose); code != 0 {
		os.Exit(code)
	}
}

func run(configPath, packetPath string, showKey, verbose bool) int {
	fmt.Println("=== AIS Weather Feeder Dry Run ===")
	fmt.Println()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}

	packet, err := loadPacket(packetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load packet: %v\n", err)
		return 1
	}

	rules, dups := cfg.AcceptanceTable()
	publish := cfg.PublishConfig()

	settingsPhase := validateSettings(dups, publish)

	logOut := io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	recorder := &recordingSubmitter{}
	builder := pipeline.NewSubmissionBuilder(pipeline.Settings{
		Rules:     rules,
		Publish:   publish,
		Stations:  cfg.StationNames(),
		AuthorKey: cfg.ERDDAPKey,
	})
	proc := pipeline.New(builder, recorder, logger, observability.NewMetricsForTesting())
	summary := proc.Process(context.Background(), packet)

	packetPhase := validatePacket(summary)

	fmt.Printf("Config:  %s\n", cfg.Path)
	fmt.Printf("Packet:  %s (station %q, receiver %q)\n", packetPath, packet.StationID, packet.Receiver.Description)
	fmt.Printf("Rules:   %d\n", rules.Len())
	fmt.Println()

	fmt.Printf("=== Queries (%d) ===\n", len(recorder.submissions))
	endpoint := strings.TrimSuffix(cfg.ERDDAPURL, "/") + ".insert?"
	for i, sub := range recorder.submissions {
		fmt.Printf("  [%d] mmsi %d\n", i+1, sub.Observation.Station.MMSI)
		fmt.Printf("      %s%s\n", endpoint, queryFor(sub, showKey))
	}

	fmt.Println()
	fmt.Println("=== Outcomes ===")
	fmt.Printf("  %-10s %d\n", "total", summary.Total)
	fmt.Printf("  %-10s %d\n", "submitted", summary.Submitted)
	fmt.Printf("  %-10s %d\n", "skipped", summary.Skipped)
	fmt.Printf("  %-10s %d\n", "ignored", summary.Ignored)
	fmt.Printf("  %-10s %d\n", "failed", summary.Failed)

	phases := []*phase{settingsPhase, packetPhase}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadPacket(path string) (domain.Packet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Packet{}, err
	}
	var packet domain.Packet
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&packet); err != nil {
		return domain.Packet{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return packet, nil
}

// validateSettings flags configuration that loads but is probably a mistake.
func validateSettings(dups []domain.MessageIdentifier, publish domain.PublishConfig) *phase {
	p := &phase{name: "Settings: rules and publish fields"}
	for _, id := range dups {
		p.errorf("acceptance rule %s defined more than once", id)
	}
	known := domain.WeatherFieldNames()
	for _, n := range publish.RenameCollisions(known) {
		p.errorf("several fields are published as %q", n)
	}
	for _, n := range publish.UnknownFields(known) {
		p.errorf("%q is not a weather field", n)
	}
	return p
}

// validatePacket fails when a message could not be decoded or nothing would
// be submitted.
func validatePacket(s pipeline.Summary) *phase {
	p := &phase{name: "Packet: decode and submit"}
	if s.Failed > 0 {
		p.errorf("%d of %d messages failed to decode (run with -v for details)", s.Failed, s.Total)
	}
	if s.Submitted == 0 {
		p.errorf("no message in the packet would be submitted")
	}
	return p
}

// queryFor renders the submission's query, hiding the author key unless
// showKey is set.
func queryFor(sub domain.Submission, showKey bool) string {
	if showKey {
		return sub.Query()
	}
	args := make([]domain.QueryArg, len(sub.Args))
	copy(args, sub.Args)
	for i := range args {
		if args[i].Key == domain.KeyAuthor {
			args[i].Value = "REDACTED"
		}
	}
	return domain.EncodeQuery(args)
}
