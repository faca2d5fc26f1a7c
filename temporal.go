// Temporal value codec: text to epoch-based integers and back.
//
// Three independent value types, each with a strict parse/format pair:
//
//   - Date: signed 32-bit days since the Unix epoch. Only unambiguous
//     textual forms are accepted; day-first and month-first forms are
//     rejected outright rather than guessed.
//   - DateTime: signed 64-bit microseconds since the epoch, always
//     normalized to UTC. A missing offset means UTC — an explicit design
//     choice, never inferred from the environment. Output always carries
//     an explicit UTC marker.
//   - Duration: signed 64-bit microseconds, time-only ISO patterns. Any
//     duration with calendar components (years, months, weeks, days) is a
//     distinct UnsupportedDuration error, since calendar lengths depend on
//     their anchor date.
//
// All failures return errors from the taxonomy in errors.go; nothing here
// panics.
package arbor

import (
	"strconv"
	"strings"
	"time"
)

const (
	microsPerSecond = int64(1_000_000)
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
	secondsPerDay   = int64(86_400)
)

const dateForms = "YYYY-MM-DD, YYYY/MM/DD, or YYYYMMDD"

// ParseDate converts a textual date into days since the Unix epoch.
func ParseDate(s string) (int32, error) {
	var y, m, d int
	var err error

	switch {
	case len(s) == 10 && s[4] == '-' && s[7] == '-':
		y, m, d, err = dateParts(s[:4], s[5:7], s[8:10])
	case len(s) == 10 && s[4] == '/' && s[7] == '/':
		y, m, d, err = dateParts(s[:4], s[5:7], s[8:10])
	case len(s) == 8 && allDigits(s):
		y, m, d, err = dateParts(s[:4], s[4:6], s[6:8])
	case len(s) == 10 && (s[2] == '-' || s[2] == '/') && s[5] == s[2]:
		// DD-MM-YYYY and MM/DD/YYYY are indistinguishable for most
		// inputs. Refusing beats guessing.
		return 0, &AmbiguityError{Input: s, Hint: "day-first and month-first forms are rejected; use " + dateForms}
	default:
		return 0, &FormatError{Input: s, Expected: dateForms}
	}
	if err != nil {
		return 0, err
	}

	if m < 1 || m > 12 {
		return 0, &RangeError{Input: s, Reason: "month must be 1-12"}
	}
	if d < 1 || d > daysInMonth(y, m) {
		return 0, &RangeError{Input: s, Reason: "day out of range for month"}
	}

	// Midnight UTC is always an exact multiple of a day, so the division
	// is exact even before 1970.
	unix := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Unix()
	return int32(unix / secondsPerDay), nil
}

// FormatDate renders days since epoch as YYYY-MM-DD. It round-trips
// ParseDate for every representable date.
func FormatDate(days int32) string {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC().Format("2006-01-02")
}

func dateParts(ys, ms, ds string) (int, int, int, error) {
	if !allDigits(ys) || !allDigits(ms) || !allDigits(ds) {
		return 0, 0, 0, &FormatError{Input: ys + "-" + ms + "-" + ds, Expected: dateForms}
	}
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	return y, m, d, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func daysInMonth(y, m int) int {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	}
	if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
		return 29
	}
	return 28
}

// datetimeLayouts are tried in order. Layouts without a zone designator
// parse as UTC, which implements the missing-offset-means-UTC rule.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseDateTime converts an ISO-style date+time into microseconds since
// the Unix epoch, normalized to UTC. Fractional seconds and a zone offset
// are optional; absent offset means UTC.
func ParseDateTime(s string) (int64, error) {
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if y := t.Year(); y < 0 || y > 9999 {
			return 0, &RangeError{Input: s, Reason: "year must be 0000-9999"}
		}
		return t.UnixMicro(), nil
	}
	return 0, &FormatError{Input: s, Expected: "YYYY-MM-DDTHH:MM:SS[.ffffff][Z|±HH:MM]"}
}

// FormatDateTime renders microseconds since epoch in UTC with an explicit
// Z marker. Fractional seconds appear only when nonzero, trailing zeros
// trimmed.
func FormatDateTime(micros int64) string {
	t := time.UnixMicro(micros).UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	s := t.Format("2006-01-02T15:04:05.000000")
	s = strings.TrimRight(s, "0")
	return s + "Z"
}

// ParseDuration converts a time-only ISO 8601 duration (PT..H..M..S, sign
// allowed, fractional seconds allowed) into microseconds. Calendar
// components yield UnsupportedDuration.
func ParseDuration(s string) (int64, error) {
	rest := s
	neg := false
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "+") {
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, "P") {
		return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
	}
	rest = rest[1:]

	datePart, timePart, hasT := strings.Cut(rest, "T")
	if datePart != "" {
		if calendarComponents(datePart) {
			return 0, &DurationError{Input: s, Reason: "calendar components (years, months, weeks, days) are not supported"}
		}
		return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
	}
	if !hasT || timePart == "" {
		return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
	}

	var total uint64
	seen := 0 // highest designator consumed: 0 none, 1 H, 2 M, 3 S
	for timePart != "" {
		num, frac, desig, remain, ok := durationComponent(timePart)
		if !ok {
			return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
		}
		timePart = remain

		var unit int64
		var rank int
		switch desig {
		case 'H':
			unit, rank = microsPerHour, 1
		case 'M':
			unit, rank = microsPerMinute, 2
		case 'S':
			unit, rank = microsPerSecond, 3
		default:
			return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
		}
		if rank <= seen {
			return 0, &FormatError{Input: s, Expected: "components in H, M, S order, each at most once"}
		}
		seen = rank
		if frac != 0 && desig != 'S' {
			return 0, &FormatError{Input: s, Expected: "fractional values only on seconds"}
		}

		// Check the multiplication before performing it; the additive
		// guard below cannot see a product that already wrapped.
		if num > (uint64(1)<<63-1)/uint64(unit) {
			return 0, &RangeError{Input: s, Reason: "duration exceeds int64 microseconds"}
		}
		prev := total
		total += num*uint64(unit) + frac
		if total < prev || total > uint64(1)<<63-1 {
			return 0, &RangeError{Input: s, Reason: "duration exceeds int64 microseconds"}
		}
	}
	if seen == 0 {
		return 0, &FormatError{Input: s, Expected: "PT[n]H[n]M[n]S"}
	}

	v := int64(total)
	if neg {
		v = -v
	}
	return v, nil
}

// calendarComponents reports whether the pre-T part of a duration is a
// well-formed sequence of calendar designators (Y, M, W, D).
func calendarComponents(s string) bool {
	for s != "" {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i >= len(s) {
			return false
		}
		switch s[i] {
		case 'Y', 'M', 'W', 'D':
		default:
			return false
		}
		s = s[i+1:]
	}
	return true
}

// durationComponent consumes one number+designator from the front of s.
// frac is the fractional part scaled to microseconds (truncated past six
// digits).
func durationComponent(s string) (num, frac uint64, desig byte, rest string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		num = num*10 + uint64(s[i]-'0')
		if num > uint64(1)<<50 { // far beyond any representable duration
			return 0, 0, 0, "", false
		}
		i++
	}
	digits := i
	if i < len(s) && s[i] == '.' {
		i++
		scale := uint64(100_000)
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if scale > 0 {
				frac += uint64(s[i]-'0') * scale
				scale /= 10
			}
			i++
		}
		if i == digits+1 { // dot with no fraction digits
			return 0, 0, 0, "", false
		}
	}
	if digits == 0 || i >= len(s) {
		return 0, 0, 0, "", false
	}
	return num, frac, s[i], s[i+1:], true
}

// FormatDuration renders microseconds as a time-only ISO duration. Zero is
// PT0S; components appear only when nonzero. Round-trips ParseDuration.
func FormatDuration(micros int64) string {
	if micros == 0 {
		return "PT0S"
	}
	var b strings.Builder
	v := micros
	if v < 0 {
		b.WriteByte('-')
		v = -v // int64 min cannot arise: it is not reachable via ParseDuration
	}
	b.WriteString("PT")

	h := v / microsPerHour
	v %= microsPerHour
	m := v / microsPerMinute
	v %= microsPerMinute
	sec := v / microsPerSecond
	frac := v % microsPerSecond

	if h > 0 {
		b.WriteString(strconv.FormatInt(h, 10))
		b.WriteByte('H')
	}
	if m > 0 {
		b.WriteString(strconv.FormatInt(m, 10))
		b.WriteByte('M')
	}
	if sec > 0 || frac > 0 {
		b.WriteString(strconv.FormatInt(sec, 10))
		if frac > 0 {
			f := strconv.FormatInt(frac+microsPerSecond, 10)[1:] // zero-padded
			b.WriteByte('.')
			b.WriteString(strings.TrimRight(f, "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}
