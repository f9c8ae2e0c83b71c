package llsd

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateRE is the timestamp shape shared by the XML and notation encodings:
// YYYY-MM-DDTHH:MM:SS[.fff]Z.
var dateRE = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(\.\d+)?Z`)

// formatDate renders t in the canonical LLSD timestamp form. Sub-second
// precision is emitted only when present.
func formatDate(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	s := t.Format("2006-01-02T15:04:05.000000")
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "Z"
}

// parseDate accepts the canonical timestamp form. The empty string decodes to
// the epoch.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	m := dateRE.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, parseErrf(-1, "invalid date string %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	min, _ := strconv.Atoi(m[5])
	sec, _ := strconv.Atoi(m[6])
	nsec := 0
	if m[7] != "" {
		frac, _ := strconv.ParseFloat("0"+m[7], 64)
		nsec = int(math.Round(frac * 1e9))
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, nsec, time.UTC), nil
}
