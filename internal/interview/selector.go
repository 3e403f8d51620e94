package interview

import (
	"fmt"
	"math/rand/v2"
)

// Selector picks an index in [0, n). Sessions use it to choose a rephrasing template.
type Selector interface {
	Pick(n int) int
}

type SelectorFunc func(n int) int

func (f SelectorFunc) Pick(n int) int { return f(n) }

type randSelector struct {
	r *rand.Rand
}

// NewSeededSelector returns a deterministic selector for the given seed.
func NewSeededSelector(seed uint64) Selector {
	return &randSelector{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *randSelector) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return s.r.IntN(n)
}

const clarificationWithoutHistory = "I'd be happy to clarify! Let me rephrase my question in a different way."

func rephrasings(question string) []string {
	return []string{
		fmt.Sprintf("Of course! Let me rephrase that question: %s", question),
		fmt.Sprintf("I understand. Let me break this down more simply: %s", question),
		fmt.Sprintf("Let me clarify what I'm asking: %s", question),
		fmt.Sprintf("Let me put this another way: %s", question),
		fmt.Sprintf("I'll rephrase that: %s", question),
	}
}
