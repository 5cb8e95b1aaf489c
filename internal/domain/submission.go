package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query keys the archive expects. Lower case keys are ERDDAP's own
// conventions; the rest match the dataset's column names.
const (
	KeyLatitude    = "latitude"
	KeyLongitude   = "longitude"
	KeyTime        = "time"
	KeySignalPower = "Signal_Power"
	KeyStationID   = "Station_ID"
	KeyMMSI        = "mmsi"
	KeyAuthor      = "author"
)

// IsReservedKey reports whether name is a query key Assemble emits itself.
// Weather fields must not be published under these names.
func IsReservedKey(name string) bool {
	switch name {
	case KeyLatitude, KeyLongitude, KeyTime, KeySignalPower, KeyStationID, KeyMMSI, KeyAuthor:
		return true
	}
	return false
}

// Submission is one accepted observation ready for the archive: the ordered
// query arguments plus the weather fields that survived filtering and renaming.
type Submission struct {
	Observation     Observation
	Args            []QueryArg
	PublishedFields []Field
}

// Query renders the submission's arguments as an order-preserving query string.
func (s Submission) Query() string {
	return EncodeQuery(s.Args)
}

// QueryArg is one ordered query-string pair.
type QueryArg struct {
	Key   string
	Value string
}

// StationArgs renders the station part of a submission. Coordinates and
// signal power are fixed to three decimals and omitted when absent.
func StationArgs(s StationRecord, names StationNameTable) []QueryArg {
	args := make([]QueryArg, 0, 6)
	if s.Latitude != nil {
		args = append(args, QueryArg{KeyLatitude, formatFixed3(*s.Latitude)})
	}
	if s.Longitude != nil {
		args = append(args, QueryArg{KeyLongitude, formatFixed3(*s.Longitude)})
	}
	args = append(args, QueryArg{KeyTime, s.RxTime.UTC().Format(time.RFC3339)})
	if s.SignalPower != nil {
		args = append(args, QueryArg{KeySignalPower, formatFixed3(*s.SignalPower)})
	}
	args = append(args,
		QueryArg{KeyStationID, names.Name(s.MMSI)},
		QueryArg{KeyMMSI, strconv.FormatUint(s.MMSI, 10)},
	)
	return args
}

// Assemble merges station fields, the already filtered and renamed weather
// fields, and the author credential into one ordered argument list.
func Assemble(s StationRecord, weather []Field, names StationNameTable, authorKey string) []QueryArg {
	args := StationArgs(s, names)
	for _, f := range weather {
		args = append(args, QueryArg{Key: f.Name, Value: f.String()})
	}
	return append(args, QueryArg{KeyAuthor, authorKey})
}

// EncodeQuery renders args as a query string, preserving their order.
func EncodeQuery(args []QueryArg) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(a.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(a.Value))
	}
	return b.String()
}

func formatFixed3(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
