package domain

import (
	"sort"
	"strconv"
)

// WeatherRecord holds the met/hydro payload of an IMO 289 (8/1/31) broadcast.
// Every field has a "not available" sentinel that is used when the key is
// absent from the message; see weatherFields.
type WeatherRecord struct {
	AirTemp       float64
	CurrentDepth2 uint64
	CurrentDepth3 uint64
	CurrentDir    uint64
	CurrentDir2   uint64
	CurrentDir3   uint64
	CurrentSpeed  float64
	CurrentSpeed2 float64
	CurrentSpeed3 float64
	Day           uint64
	DewPoint      float64
	Hour          uint64
	Humidity      uint64
	Ice           uint64
	LevelTrend    uint64
	Minute        uint64
	PrecipType    uint64
	Pressure      uint64
	PressureTend  uint64
	Salinity      float64
	SeaState      uint64
	SwellDir      uint64
	SwellHeight   float64
	SwellPeriod   uint64
	Visibility    float64
	WaterLevel    float64
	WaterTemp     float64
	WaveDir       uint64
	WaveHeight    float64
	WavePeriod    uint64
	WindDir       uint64
	WindGust      uint64
	WindGustDir   uint64
	WindSpeed     uint64
}

// Field is one published name/value pair. Value is a uint64 or a float64.
type Field struct {
	Name  string
	Value any
}

// String formats the value in its natural decimal form.
func (f Field) String() string {
	return formatValue(f.Value)
}

func formatValue(v any) string {
	switch n := v.(type) {
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		return ""
	}
}

// weatherField describes how one AIS-catcher key maps onto WeatherRecord.
// Exactly one of u or f is set.
type weatherField struct {
	name     string
	defUint  uint64
	defFloat float64
	u        func(*WeatherRecord) *uint64
	f        func(*WeatherRecord) *float64
}

func uintField(name string, def uint64, p func(*WeatherRecord) *uint64) weatherField {
	return weatherField{name: name, defUint: def, u: p}
}

func floatField(name string, def float64, p func(*WeatherRecord) *float64) weatherField {
	return weatherField{name: name, defFloat: def, f: p}
}

// weatherFields is the decode table, sorted by name at init.
var weatherFields = []weatherField{
	floatField("airtemp", -102.4, func(r *WeatherRecord) *float64 { return &r.AirTemp }),
	uintField("cdepth2", 31, func(r *WeatherRecord) *uint64 { return &r.CurrentDepth2 }),
	uintField("cdepth3", 31, func(r *WeatherRecord) *uint64 { return &r.CurrentDepth3 }),
	uintField("cdir", 360, func(r *WeatherRecord) *uint64 { return &r.CurrentDir }),
	uintField("cdir2", 360, func(r *WeatherRecord) *uint64 { return &r.CurrentDir2 }),
	uintField("cdir3", 360, func(r *WeatherRecord) *uint64 { return &r.CurrentDir3 }),
	floatField("cspeed", 25.5, func(r *WeatherRecord) *float64 { return &r.CurrentSpeed }),
	floatField("cspeed2", 25.5, func(r *WeatherRecord) *float64 { return &r.CurrentSpeed2 }),
	floatField("cspeed3", 25.5, func(r *WeatherRecord) *float64 { return &r.CurrentSpeed3 }),
	uintField("day", 0, func(r *WeatherRecord) *uint64 { return &r.Day }),
	floatField("dewpoint", 50.1, func(r *WeatherRecord) *float64 { return &r.DewPoint }),
	uintField("hour", 24, func(r *WeatherRecord) *uint64 { return &r.Hour }),
	uintField("humidity", 101, func(r *WeatherRecord) *uint64 { return &r.Humidity }),
	uintField("ice", 3, func(r *WeatherRecord) *uint64 { return &r.Ice }),
	uintField("leveltrend", 3, func(r *WeatherRecord) *uint64 { return &r.LevelTrend }),
	uintField("minute", 60, func(r *WeatherRecord) *uint64 { return &r.Minute }),
	uintField("preciptype", 7, func(r *WeatherRecord) *uint64 { return &r.PrecipType }),
	uintField("pressure", 511, func(r *WeatherRecord) *uint64 { return &r.Pressure }),
	uintField("pressuretend", 3, func(r *WeatherRecord) *uint64 { return &r.PressureTend }),
	floatField("salinity", 51.0, func(r *WeatherRecord) *float64 { return &r.Salinity }),
	uintField("seastate", 13, func(r *WeatherRecord) *uint64 { return &r.SeaState }),
	uintField("swelldir", 360, func(r *WeatherRecord) *uint64 { return &r.SwellDir }),
	floatField("swellheight", 25.5, func(r *WeatherRecord) *float64 { return &r.SwellHeight }),
	uintField("swellperiod", 63, func(r *WeatherRecord) *uint64 { return &r.SwellPeriod }),
	floatField("visibility", 12.7, func(r *WeatherRecord) *float64 { return &r.Visibility }),
	floatField("waterlevel", 30.01, func(r *WeatherRecord) *float64 { return &r.WaterLevel }),
	floatField("watertemp", 50.1, func(r *WeatherRecord) *float64 { return &r.WaterTemp }),
	uintField("wavedir", 360, func(r *WeatherRecord) *uint64 { return &r.WaveDir }),
	floatField("waveheight", 25.5, func(r *WeatherRecord) *float64 { return &r.WaveHeight }),
	uintField("waveperiod", 63, func(r *WeatherRecord) *uint64 { return &r.WavePeriod }),
	uintField("wdir", 360, func(r *WeatherRecord) *uint64 { return &r.WindDir }),
	uintField("wgust", 127, func(r *WeatherRecord) *uint64 { return &r.WindGust }),
	uintField("wgustdir", 360, func(r *WeatherRecord) *uint64 { return &r.WindGustDir }),
	uintField("wspeed", 127, func(r *WeatherRecord) *uint64 { return &r.WindSpeed }),
}

func init() {
	sort.Slice(weatherFields, func(i, j int) bool { return weatherFields[i].name < weatherFields[j].name })
}

// WeatherFieldNames lists every weather key in output order.
func WeatherFieldNames() []string {
	names := make([]string, len(weatherFields))
	for i, wf := range weatherFields {
		names[i] = wf.name
	}
	return names
}

// DefaultWeatherRecord returns a record with every field at its sentinel.
func DefaultWeatherRecord() WeatherRecord {
	var r WeatherRecord
	for _, wf := range weatherFields {
		if wf.u != nil {
			*wf.u(&r) = wf.defUint
		} else {
			*wf.f(&r) = wf.defFloat
		}
	}
	return r
}

// DecodeWeather builds a WeatherRecord. Absent keys take their sentinel;
// present keys must be numeric.
func DecodeWeather(m RawMessage) (WeatherRecord, error) {
	var r WeatherRecord
	for _, wf := range weatherFields {
		if wf.u != nil {
			v, err := defaultedUint(m, wf.name, wf.defUint)
			if err != nil {
				return WeatherRecord{}, err
			}
			*wf.u(&r) = v
			continue
		}
		v, err := defaultedFloat(m, wf.name, wf.defFloat)
		if err != nil {
			return WeatherRecord{}, err
		}
		*wf.f(&r) = v
	}
	return r, nil
}

// Fields flattens the record into name/value pairs sorted by name.
func (r WeatherRecord) Fields() []Field {
	out := make([]Field, len(weatherFields))
	for i, wf := range weatherFields {
		if wf.u != nil {
			out[i] = Field{Name: wf.name, Value: *wf.u(&r)}
		} else {
			out[i] = Field{Name: wf.name, Value: *wf.f(&r)}
		}
	}
	return out
}

// Get returns the value of a single field by its AIS-catcher key.
func (r WeatherRecord) Get(name string) (any, bool) {
	i := sort.Search(len(weatherFields), func(i int) bool { return weatherFields[i].name >= name })
	if i == len(weatherFields) || weatherFields[i].name != name {
		return nil, false
	}
	wf := weatherFields[i]
	if wf.u != nil {
		return *wf.u(&r), true
	}
	return *wf.f(&r), true
}
