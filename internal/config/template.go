package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by WriteTemplate when the file is already present.
var ErrExists = errors.New("configuration file already exists")

const template = `# AIS weather feeder configuration.
# Edit every placeholder below; the feeder refuses to start until you do.

http_addr = "0.0.0.0:22022"
log_level = "info"
log_format = "json"
shutdown_timeout = "10s"
dump_all_packets = false

# Dataset URL without the .insert suffix.
erddap_url = "` + PlaceholderURL + `"
erddap_key = "` + PlaceholderKey + `"

# MMSIs ignored under every acceptance rule.
ignore_mmsi = []

# Weather fields to publish. Empty publishes all of them.
publish_fields = []

# Renames applied after filtering.
# rename_fields = [
#   { from = "wspeed", to = "Wind_Speed" },
#   { from = "waveheight", to = "Wave_Height" },
# ]

# Acceptance rules. Without any, type 8 / DAC 1 / FID 31 is accepted.
# [[accept]]
# type = 8
# dac = 1
# fid = 31
# ignore_mmsi = []

[[mmsi_lookup]]
mmsi = "` + PlaceholderMMSI + `"
station_id = "Station Name"

[erddap]
timeout = "30s"
rate_limit = 0
rate_burst = 1
breaker_enabled = false
breaker_failures = 5
breaker_open_timeout = "30s"

[kafka_mirror]
enabled = false
brokers = ["localhost:9092"]
topic = "ais-weather-observations"
`

// WriteTemplate writes a starter configuration to path, creating parent
// directories. It never overwrites an existing file.
func WriteTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("create config %s: %w", path, err)
	}
	if _, err := f.WriteString(template); err != nil {
		f.Close()
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return f.Close()
}
