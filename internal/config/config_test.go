package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/ais-weather-feeder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
erddap_url = "https://erddap.test/erddap/tabledap/solent_weather"
erddap_key = "feeder_secret"
ignore_mmsi = [992351000]
publish_fields = ["wspeed", "waveheight"]
rename_fields = [
  { from = "wspeed", to = "Wind_Speed" },
]

[[mmsi_lookup]]
mmsi = "992351234"
station_id = "Bramble Bank"

[[mmsi_lookup]]
mmsi = " 992351235 "
station_id = "Calshot"
`

const stationOnly = `
erddap_url = "https://erddap.test/erddap/tabledap/solent_weather"
erddap_key = "feeder_secret"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func u64(v uint64) *uint64 { return &v }

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "0.0.0.0:22022", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.DumpAllPackets)

	assert.Equal(t, 30*time.Second, cfg.ERDDAP.Timeout)
	assert.Zero(t, cfg.ERDDAP.RateLimit)
	assert.Equal(t, 1, cfg.ERDDAP.RateBurst)
	assert.False(t, cfg.ERDDAP.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.ERDDAP.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.ERDDAP.BreakerOpenTimeout)

	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "ais-weather-observations", cfg.Kafka.Topic)

	assert.Equal(t, "https://erddap.test/erddap/tabledap/solent_weather", cfg.ERDDAPURL)
	assert.Equal(t, "feeder_secret", cfg.ERDDAPKey)
	assert.Equal(t, []uint64{992351000}, cfg.IgnoreMMSI)
	assert.Equal(t, []string{"wspeed", "waveheight"}, cfg.PublishFields)
	assert.Equal(t, []RenamePair{{From: "wspeed", To: "Wind_Speed"}}, cfg.RenameFields)
	assert.Len(t, cfg.MMSILookup, 2)
	assert.Empty(t, cfg.Accept)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DUMP_ALL_PACKETS", "true")
	t.Setenv("ERDDAP_KEY", "from_env")
	t.Setenv("ERDDAP_TIMEOUT", "5s")
	t.Setenv("ERDDAP_RATE_LIMIT", "2.5")
	t.Setenv("ERDDAP_BREAKER_ENABLED", "true")
	t.Setenv("KAFKA_MIRROR_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_MIRROR_TOPIC", "custom-mirror")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.DumpAllPackets)
	assert.Equal(t, "from_env", cfg.ERDDAPKey)
	assert.Equal(t, 5*time.Second, cfg.ERDDAP.Timeout)
	assert.InDelta(t, 2.5, cfg.ERDDAP.RateLimit, 1e-9)
	assert.True(t, cfg.ERDDAP.BreakerEnabled)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "custom-mirror", cfg.Kafka.Topic)
}

func TestLoad_FileSections(t *testing.T) {
	body := validConfig + `
[[accept]]
type = 8
dac = 1
fid = 31
ignore_mmsi = [992351999]

[[accept]]
type = 21

[erddap]
timeout = "0s"
breaker_failures = 3
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	require.Len(t, cfg.Accept, 2)
	assert.Equal(t, uint64(8), cfg.Accept[0].Type)
	assert.Equal(t, u64(1), cfg.Accept[0].DAC)
	assert.Equal(t, u64(31), cfg.Accept[0].FID)
	assert.Equal(t, []uint64{992351999}, cfg.Accept[0].IgnoreMMSI)
	assert.Nil(t, cfg.Accept[1].DAC)
	assert.Nil(t, cfg.Accept[1].FID)

	assert.Zero(t, cfg.ERDDAP.Timeout)
	assert.Equal(t, uint32(3), cfg.ERDDAP.BreakerFailures)
	assert.Equal(t, 1, cfg.ERDDAP.RateBurst, "unset keys in a present table keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "erddap_url = [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_Template(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "default-config.toml")
	require.NoError(t, WriteTemplate(path))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrPlaceholderMMSI)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no stations",
			body:    stationOnly,
			wantErr: ErrNoStations,
		},
		{
			name:    "placeholder url",
			body:    validConfig,
			env:     map[string]string{"ERDDAP_URL": PlaceholderURL},
			wantErr: ErrPlaceholderURL,
		},
		{
			name:    "placeholder key",
			body:    validConfig,
			env:     map[string]string{"ERDDAP_KEY": PlaceholderKey},
			wantErr: ErrPlaceholderKey,
		},
		{
			name: "half rename pair",
			body: stationOnly + `rename_fields = [{ from = "wgust" }]

[[mmsi_lookup]]
mmsi = "992351234"
station_id = "Bramble Bank"
`,
			wantErr: ErrInvalidRenamePair,
		},
		{
			name: "rename onto station key",
			body: stationOnly + `rename_fields = [{ from = "wspeed", to = "mmsi" }]

[[mmsi_lookup]]
mmsi = "992351234"
station_id = "Bramble Bank"
`,
			wantErr: ErrReservedRename,
		},
		{
			name: "rename onto author key",
			body: stationOnly + `rename_fields = [{ from = "wgust", to = "author" }]

[[mmsi_lookup]]
mmsi = "992351234"
station_id = "Bramble Bank"
`,
			wantErr: ErrReservedRename,
		},
		{
			name:    "unknown log level",
			body:    validConfig,
			env:     map[string]string{"LOG_LEVEL": "verbose"},
			wantMsg: "LogLevel",
		},
		{
			name:    "relative erddap url",
			body:    validConfig,
			env:     map[string]string{"ERDDAP_URL": "erddap/tabledap/x"},
			wantMsg: "ERDDAPURL",
		},
		{
			name:    "negative shutdown timeout",
			body:    validConfig,
			env:     map[string]string{"SHUTDOWN_TIMEOUT": "-1s"},
			wantMsg: "shutdown_timeout",
		},
		{
			name:    "negative rate limit",
			body:    validConfig,
			env:     map[string]string{"ERDDAP_RATE_LIMIT": "-1"},
			wantMsg: "erddap.rate_limit",
		},
		{
			name:    "mirror without topic",
			body:    validConfig + "\n[kafka_mirror]\nenabled = true\ntopic = \"\"\n",
			wantMsg: "kafka_mirror.topic",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestAcceptanceTable_Default(t *testing.T) {
	cfg := &Config{IgnoreMMSI: []uint64{992351000}}

	table, dups := cfg.AcceptanceTable()
	assert.Empty(t, dups)
	assert.Equal(t, 1, table.Len())

	rule, ok := table.Lookup(domain.NewIdentifier(8, u64(1), u64(31)))
	require.True(t, ok)
	assert.True(t, rule.IsExcluded(992351000))
	assert.False(t, rule.IsExcluded(992351234))
}

func TestAcceptanceTable_MergesGlobalIgnore(t *testing.T) {
	cfg := &Config{
		IgnoreMMSI: []uint64{1},
		Accept: []AcceptEntry{
			{Type: 8, DAC: u64(1), FID: u64(31), IgnoreMMSI: []uint64{2}},
			{Type: 21},
		},
	}

	table, dups := cfg.AcceptanceTable()
	assert.Empty(t, dups)
	assert.Equal(t, 2, table.Len())

	weather, ok := table.Lookup(domain.NewIdentifier(8, u64(1), u64(31)))
	require.True(t, ok)
	assert.True(t, weather.IsExcluded(1))
	assert.True(t, weather.IsExcluded(2))

	aton, ok := table.Lookup(domain.NewIdentifier(21, nil, nil))
	require.True(t, ok)
	assert.True(t, aton.IsExcluded(1))
	assert.False(t, aton.IsExcluded(2))

	_, ok = table.Lookup(domain.NewIdentifier(21, u64(0), nil))
	assert.False(t, ok, "absent components do not match present ones")
}

func TestAcceptanceTable_DuplicateLastWins(t *testing.T) {
	cfg := &Config{
		Accept: []AcceptEntry{
			{Type: 8, DAC: u64(1), FID: u64(31), IgnoreMMSI: []uint64{5}},
			{Type: 8, DAC: u64(1), FID: u64(31), IgnoreMMSI: []uint64{6}},
		},
	}

	table, dups := cfg.AcceptanceTable()
	require.Len(t, dups, 1)
	assert.Equal(t, "type=8 dac=1 fid=31", dups[0].String())

	rule, ok := table.Lookup(domain.NewIdentifier(8, u64(1), u64(31)))
	require.True(t, ok)
	assert.False(t, rule.IsExcluded(5))
	assert.True(t, rule.IsExcluded(6))
}

func TestPublishConfig(t *testing.T) {
	cfg := &Config{
		PublishFields: []string{"wspeed", "wdir"},
		RenameFields: []RenamePair{
			{From: "wspeed", To: "Wind_Speed"},
			{From: "wdir", To: "Wind_Dir"},
			{From: "wdir", To: "Wind_Direction"},
		},
	}

	pc := cfg.PublishConfig()
	assert.Equal(t, []string{"wspeed", "wdir"}, pc.AllowList)
	assert.Equal(t, map[string]string{"wspeed": "Wind_Speed", "wdir": "Wind_Direction"}, pc.RenameMap)
}

func TestStationNames(t *testing.T) {
	cfg := &Config{MMSILookup: []MMSILookup{
		{MMSI: "992351234", StationID: "Bramble Bank"},
		{MMSI: " 992351235 ", StationID: "Calshot"},
	}}

	names := cfg.StationNames()
	assert.Equal(t, "Bramble Bank", names.Name(992351234))
	assert.Equal(t, "Calshot", names.Name(992351235))
	assert.Equal(t, domain.UnknownStation, names.Name(1))
}

func TestWriteTemplate_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	err := WriteTemplate(path)
	require.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestWriteTemplate_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	require.NoError(t, WriteTemplate(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
