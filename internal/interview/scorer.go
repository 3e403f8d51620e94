package interview

import (
	"math"
	"strconv"
	"strings"
)

const (
	MinScore = 1
	MaxScore = 10
)

// FallbackScore grades an answer by its length alone. It never fails.
func FallbackScore(answer string) int {
	if len(strings.TrimSpace(answer)) < 10 {
		return 3
	}
	words := len(strings.Fields(answer))
	switch {
	case words < 20:
		return 4
	case words < 50:
		return 6
	case words < 100:
		return 7
	default:
		return 8
	}
}

// ParseScore reads a model rubric response. ok is false when the response is not a
// number or falls outside [MinScore, MaxScore] after rounding.
func ParseScore(raw string) (score int, ok bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, ".!")
	if i := strings.Index(s, "/"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	n := int(math.Round(f))
	if n < MinScore || n > MaxScore {
		return 0, false
	}
	return n, true
}
