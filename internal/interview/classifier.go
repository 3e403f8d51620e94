package interview

import "strings"

// TurnKind is the classification of a candidate message.
type TurnKind int

const (
	KindMain TurnKind = iota
	KindClarification
	KindFollowUp
)

func (k TurnKind) String() string {
	switch k {
	case KindClarification:
		return "clarification"
	case KindFollowUp:
		return "follow_up"
	default:
		return "main"
	}
}

const (
	maxStageTurnsForFollowUp = 3
	minFollowUpWords         = 8
)

var clarificationPhrases = []string{
	"i didn't understand", "i don't understand", "can you repeat", "could you repeat",
	"can you clarify", "could you clarify", "what do you mean", "i'm not sure",
	"can you explain", "could you explain", "i need help", "i'm confused",
	"can you rephrase", "could you rephrase", "i didn't catch that",
	"can you say that again", "could you say that again", "i missed that",
}

var substanceIndicators = []string{
	"i worked on", "i developed", "i implemented", "i solved", "i managed",
	"i led", "i created", "i built", "i designed", "i collaborated",
	"challenge", "problem", "difficult", "complex", "interesting",
	"learned", "grew", "improved", "achieved", "successful",
	"project", "team", "experience", "technology", "system",
	"application", "database", "api", "framework", "tool",
}

// IsClarification reports whether the input asks for the last question to be restated.
func IsClarification(input string) bool {
	lower := strings.ToLower(input)
	for _, p := range clarificationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// SubstanceIndicators lists the indicators found in the input, in catalog order.
func SubstanceIndicators(input string) []string {
	lower := strings.ToLower(input)
	var found []string
	for _, ind := range substanceIndicators {
		if strings.Contains(lower, ind) {
			found = append(found, ind)
		}
	}
	return found
}

// Classify decides how the next utterance should respond to input.
// stageHistory holds the turns already recorded for the current stage.
func Classify(input string, stageHistory []Turn) TurnKind {
	if IsClarification(input) {
		return KindClarification
	}
	if len(stageHistory) >= maxStageTurnsForFollowUp {
		return KindMain
	}
	if len(strings.Fields(input)) < minFollowUpWords {
		return KindMain
	}
	if len(SubstanceIndicators(input)) == 0 {
		return KindMain
	}
	return KindFollowUp
}
