package interview

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	NotEnoughDataSummary = "Not enough scored answers to generate a comprehensive summary."
	recommendThreshold   = 6.0
)

// ScoredAnswer is the minimal view of a persisted turn needed for the final assessment.
type ScoredAnswer struct {
	Stage string
	Score *int
}

// Assessment aggregates the scored answers of a finished session.
type Assessment struct {
	// Average is nil when no answer carried a score.
	Average *float64
	// Breakdown maps stage name to its scores; nil when Average is nil.
	Breakdown map[string][]int
	// StageAverages keeps stages in the order they were first answered.
	StageAverages []StageAverage
}

func Assess(answers []ScoredAnswer) Assessment {
	var (
		sum    int
		n      int
		order  []string
		byName = map[string][]int{}
	)
	for _, a := range answers {
		if a.Score == nil {
			continue
		}
		stage := a.Stage
		if stage == "" {
			stage = "unknown"
		}
		if _, seen := byName[stage]; !seen {
			order = append(order, stage)
		}
		byName[stage] = append(byName[stage], *a.Score)
		sum += *a.Score
		n++
	}
	if n == 0 {
		return Assessment{}
	}

	avg := float64(sum) / float64(n)
	out := Assessment{Average: &avg, Breakdown: byName}
	for _, stage := range order {
		scores := byName[stage]
		total := 0
		for _, s := range scores {
			total += s
		}
		out.StageAverages = append(out.StageAverages, StageAverage{
			Stage:   stage,
			Average: float64(total) / float64(len(scores)),
		})
	}
	return out
}

// FallbackSummary is used when the narrative summary cannot be generated.
func FallbackSummary(a Assessment) string {
	if a.Average == nil {
		return NotEnoughDataSummary
	}
	table := strings.TrimSuffix(FormatStageTable(a.StageAverages), ", ")
	return fmt.Sprintf("The candidate completed the interview with an overall average score of %.1f/10. "+
		"Stage-by-stage performance: %s. %s", *a.Average, table, verdict(*a.Average))
}

func verdict(avg float64) string {
	switch {
	case avg >= 8:
		return "Answers were consistently detailed and well supported."
	case avg >= recommendThreshold:
		return "Answers were generally solid, with room for more depth in places."
	default:
		return "Answers were often brief and would benefit from concrete examples."
	}
}

// ValidRecommendation reports whether a generated recommendation starts with the word
// "Yes" or "No" ("Not sure" and "Yesterday" do not count).
func ValidRecommendation(text string) bool {
	t := strings.TrimSpace(text)
	for _, w := range []string{"Yes", "No"} {
		rest, ok := strings.CutPrefix(t, w)
		if !ok {
			continue
		}
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}
	return false
}

// FallbackRecommendation decides on the average alone.
func FallbackRecommendation(avg float64) string {
	if avg >= recommendThreshold {
		return fmt.Sprintf("Yes. The candidate averaged %.1f/10, which meets the bar for the next stage.", avg)
	}
	return fmt.Sprintf("No. The candidate averaged %.1f/10, which is below the bar for the next stage.", avg)
}
