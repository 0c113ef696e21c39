package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var periodPattern = regexp.MustCompile(
	`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`,
)

// Period is an ISO-8601 duration kept as separate calendar and clock
// components. Calendar components are applied on local date-time so that
// whole days survive daylight-saving transitions.
type Period struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Parse reads strings such as "P3D", "PT30M" or "P1DT12H".
func Parse(s string) (Period, error) {
	raw := strings.TrimSpace(strings.ToUpper(s))
	m := periodPattern.FindStringSubmatch(raw)
	if m == nil || raw == "P" || raw == "-P" || strings.HasSuffix(raw, "T") {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}

	fields := make([]int, 7)
	for i := range fields {
		if m[i+2] == "" {
			continue
		}
		v, err := strconv.Atoi(m[i+2])
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		fields[i] = v
	}

	p := Period{
		Years:   fields[0],
		Months:  fields[1],
		Weeks:   fields[2],
		Days:    fields[3],
		Hours:   fields[4],
		Minutes: fields[5],
		Seconds: fields[6],
	}
	if m[1] == "-" {
		p = p.Negate()
	}
	return p, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Period {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func Days(n int) Period {
	return Period{Days: n}
}

func (p Period) IsZero() bool {
	return p == Period{}
}

// HasTimeComponent reports whether the period carries hours, minutes or seconds.
func (p Period) HasTimeComponent() bool {
	return p.Hours != 0 || p.Minutes != 0 || p.Seconds != 0
}

// IsDaily reports whether the period is exactly one calendar day.
func (p Period) IsDaily() bool {
	return p == Period{Days: 1} || p == Period{Hours: 24}
}

func (p Period) Negate() Period {
	return p.Scale(-1)
}

func (p Period) Scale(k int) Period {
	return Period{
		Years:   p.Years * k,
		Months:  p.Months * k,
		Weeks:   p.Weeks * k,
		Days:    p.Days * k,
		Hours:   p.Hours * k,
		Minutes: p.Minutes * k,
		Seconds: p.Seconds * k,
	}
}

// ClockDuration returns the exact-duration part of the period.
func (p Period) ClockDuration() time.Duration {
	return time.Duration(p.Hours)*time.Hour +
		time.Duration(p.Minutes)*time.Minute +
		time.Duration(p.Seconds)*time.Second
}

// AddTo applies the calendar part on t's wall clock in t's location and
// then the clock part as an exact duration.
func (p Period) AddTo(t time.Time) time.Time {
	out := t
	if p.Years != 0 || p.Months != 0 || p.Weeks != 0 || p.Days != 0 {
		out = out.AddDate(p.Years, p.Months, p.Weeks*7+p.Days)
	}
	return out.Add(p.ClockDuration())
}

// SubFrom is AddTo with the period negated.
func (p Period) SubFrom(t time.Time) time.Time {
	return p.Negate().AddTo(t)
}

func (p Period) String() string {
	if p.IsZero() {
		return "PT0S"
	}

	neg := p.Years < 0 || p.Months < 0 || p.Weeks < 0 || p.Days < 0 ||
		p.Hours < 0 || p.Minutes < 0 || p.Seconds < 0
	q := p
	if neg {
		q = p.Negate()
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	writeUnit(&b, q.Years, 'Y')
	writeUnit(&b, q.Months, 'M')
	writeUnit(&b, q.Weeks, 'W')
	writeUnit(&b, q.Days, 'D')
	if q.HasTimeComponent() {
		b.WriteByte('T')
		writeUnit(&b, q.Hours, 'H')
		writeUnit(&b, q.Minutes, 'M')
		writeUnit(&b, q.Seconds, 'S')
	}
	return b.String()
}

func writeUnit(b *strings.Builder, v int, unit byte) {
	if v == 0 {
		return
	}
	b.WriteString(strconv.Itoa(v))
	b.WriteByte(unit)
}
