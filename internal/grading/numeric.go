package grading

import (
	"math"
	"strconv"
	"strings"
)

const numericTolerance = 1e-9

// numericMatch reports whether both strings hold the same number.
// A decimal comma is accepted ("2,5" == "2.5").
func numericMatch(key, resp string) bool {
	kv, ok := parseFloatLoose(key)
	if !ok {
		return false
	}
	rv, ok := parseFloatLoose(resp)
	if !ok {
		return false
	}
	return math.Abs(kv-rv) <= numericTolerance*math.Max(1, math.Abs(kv))
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
