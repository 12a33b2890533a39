package marstime

import (
	"fmt"
	"math"
)

// FormatHMS renders a fractional-hour value as a zero-padded "HH:MM:SS"
// clock string. The input is wrapped into [0, 24) first, and rounding
// carries propagate so the output is always within 00:00:00 to 23:59:59,
// never "24:00:00" or a 60 in the minute or second field.
func FormatHMS(hours float64) string {
	h := Wrap24(hours)
	hh := int(h)
	rem := (h - float64(hh)) * 60.0
	mm := int(rem)
	ss := int(math.Round((rem - float64(mm)) * 60.0))
	if ss == 60 {
		ss = 0
		mm++
	}
	if mm == 60 {
		mm = 0
		hh = (hh + 1) % 24
	}
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
}

// ParseHMS converts an "HH:MM:SS" clock string back to fractional hours.
// Inverse of FormatHMS up to the half-second rounding it applies.
func ParseHMS(s string) (float64, error) {
	var hh, mm, ss int
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d", &hh, &mm, &ss); err != nil {
		return 0, fmt.Errorf("marstime: parsing %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return 0, fmt.Errorf("marstime: clock fields out of range in %q", s)
	}
	return float64(hh) + float64(mm)/60.0 + float64(ss)/3600.0, nil
}
