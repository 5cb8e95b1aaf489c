// Package domain models AIS-catcher JSON packets and the IMO 289
// meteorological/hydrographic broadcast they carry.
//
// # Data Source
//
// AIS-catcher decodes VHF AIS traffic and, in HTTP mode, periodically POSTs a
// JSON packet holding every message decoded since the last post. Each element
// of "msgs" is a flat JSON object whose keys depend on the AIS message type.
// Only a small subset (binary broadcasts with a weather payload) is of interest;
// everything else is counted and dropped.
//
// # Message Identity
//
// A message is identified by the triple (type, dac, fid):
//
//	type  AIS message type, always present (8 = binary broadcast).
//	dac   Designated Area Code, present on binary messages only.
//	fid   Functional ID within the DAC, present on binary messages only.
//
// IMO 289 met/hydro is (8, 1, 31). Matching against configured rules is exact,
// so a rule naming a dac never matches a message that has none.
//
// # Field Conventions
//
// AIS-catcher emits scaled engineering values (knots, degrees, hPa, metres).
// When a sensor is not fitted the broadcaster sends the protocol's
// "not available" code and AIS-catcher may omit the key entirely. Missing keys
// decode to that same sentinel so downstream consumers see one encoding:
//
//	wspeed, wgust         127 kn
//	wdir, wgustdir, cdir  360 deg
//	pressure              511
//	humidity              101 %
//	waveperiod            63 s
//
// The full table lives in [weatherFields].
//
// Integer fields tolerate floating point input (12.5 decodes to 12, truncated
// toward zero) because some producers emit every number as a float.
// Floating point fields accept any JSON number. Strings and booleans are
// rejected in both cases.
//
// Time format:
//
//	"rxtime" is YYYYMMDDHHMMSS in UTC, e.g. "20230615120000".
//	It is emitted as RFC 3339 at second precision: "2023-06-15T12:00:00Z".
//
// # Publishing
//
// A decoded weather record is flattened to name/value pairs in alphabetic name
// order, filtered against an allow-list (empty means keep everything) and then
// renamed. Station identity and time bypass the filter; see [Assemble].
package domain
