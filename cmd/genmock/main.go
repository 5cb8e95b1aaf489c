// Command genmock writes the AIS-catcher packet fixture used by the pipeline
// tests and cmd/validate. The packet mixes accepted, ignored and skipped
// messages so every outcome is represented. It classifies the generated
// messages with the real domain package and prints the outcome counts.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/aiscatcher_packet.json -ignore 992351000
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

var rxTime = time.Date(2023, time.June, 15, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/aiscatcher_packet.json", "output path for the packet fixture")
	ignore := flag.String("ignore", "992351000", "comma-separated MMSIs the summary treats as ignored")
	flag.Parse()

	ignored, err := parseMMSIs(*ignore)
	if err != nil {
		return err
	}

	domain.SetClock(clockwork.NewFakeClockAt(rxTime.Add(5 * time.Second)))
	defer domain.SetClock(nil)

	packet := buildPacket()
	if err := writeJSON(*out, packet); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote packet fixture: %s (%d messages)", *out, len(packet.Msgs))

	return printStats(packet, ignored)
}

func buildPacket() domain.Packet {
	rx := rxTime.Format("20060102150405")
	return domain.Packet{
		Protocol:   "jsonaiscatcher",
		EncodeTime: rxTime.Add(time.Second).Format("20060102150405"),
		StationID:  "SOLENT-RX1",
		Receiver: domain.Receiver{
			Description: "AIS-catcher v0.61",
			Version:     61,
			Engine:      "A-FAST",
			Setting:     "model A-FAST droop ON fp_ds OFF ps_ema ON",
		},
		Device: domain.Device{
			Product: "RTL2838UHIDIR",
			Vendor:  "Realtek",
			Serial:  "00000001",
			Setting: "center frequency 162000000 Hz, sample rate 288K",
		},
		Msgs: []domain.RawMessage{
			fullWeatherReport(rx),
			{
				"channel": "B", "class": "AIS", "type": 1, "repeat": 0,
				"mmsi": 235009802, "rxtime": rx, "status": 0,
				"lat": 50.7655, "lon": -1.3127, "speed": 11.2, "course": 187.4, "heading": 186,
				"signalpower": -35.102,
			},
			{
				"channel": "A", "class": "AIS", "type": 8, "repeat": 0, "dac": 1, "fid": 31,
				"mmsi": 992351235, "rxtime": rx,
				"lat": 50.7398, "lon": -1.105, "wspeed": 20, "waveheight": 1.4,
			},
			{
				"channel": "A", "class": "AIS", "type": 8, "repeat": 0, "dac": 1, "fid": 31,
				"mmsi": 992351000, "rxtime": rx, "wspeed": 3,
			},
			{
				"channel": "B", "class": "AIS", "type": 8, "repeat": 0, "dac": 200, "fid": 10,
				"mmsi": 244010101, "rxtime": rx,
			},
		},
	}
}

// fullWeatherReport carries every weather field except the second and third
// current layers, which real stations rarely fill.
func fullWeatherReport(rx string) domain.RawMessage {
	return domain.RawMessage{
		"channel": "A", "class": "AIS", "type": 8, "repeat": 0, "dac": 1, "fid": 31,
		"mmsi": 992351234, "rxtime": rx, "signalpower": -41.375,
		"lat": 50.8123, "lon": -1.2999,
		"day": 15, "hour": 12, "minute": 0,
		"wspeed": 12, "wgust": 15, "wdir": 225, "wgustdir": 230,
		"airtemp": 14.5, "humidity": 78, "dewpoint": 10.6,
		"pressure": 1013, "pressuretend": 1,
		"visgreater": false, "visibility": 8.5,
		"waterlevel": 0.42, "leveltrend": 0,
		"cspeed": 0.8, "cdir": 90,
		"waveheight": 0.8, "waveperiod": 5, "wavedir": 220,
		"swellheight": 1.2, "swellperiod": 9, "swelldir": 240,
		"seastate": 3, "watertemp": 15.1, "preciptype": 0, "salinity": 34.2, "ice": 0,
	}
}

func parseMMSIs(s string) ([]uint64, error) {
	var out []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mmsi %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// printStats classifies the generated messages against the default IMO 289
// rule and reports outcome counts.
func printStats(packet domain.Packet, ignored []uint64) error {
	dac, fid := uint64(1), uint64(31)
	table, _ := domain.NewAcceptanceTable([]domain.AcceptanceRule{
		domain.NewAcceptanceRule(domain.NewIdentifier(8, &dac, &fid), ignored...),
	})

	// Round-trip through JSON so values have the types the server sees.
	data, err := json.Marshal(packet)
	if err != nil {
		return err
	}
	var decoded domain.Packet
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	counts := map[domain.ObservationKind]int{}
	failed := 0
	for _, m := range decoded.Msgs {
		obs, err := domain.Classify(m, table)
		if err != nil {
			failed++
			continue
		}
		counts[obs.Kind]++
	}

	fmt.Println()
	fmt.Printf("=== Outcomes (%d messages) ===\n", len(decoded.Msgs))
	for _, k := range []domain.ObservationKind{domain.Accepted, domain.Excluded, domain.Unrecognized} {
		fmt.Printf("  %-14s %d\n", k, counts[k])
	}
	fmt.Printf("  %-14s %d\n", "failed", failed)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
