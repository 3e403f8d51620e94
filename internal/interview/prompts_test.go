package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/providers/llm"
)

func TestRefine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Great question! What did you build next", "What did you build next?"},
		{"That's interesting. Why Go?", "Why Go?"},
		{"  Tell me about your last project.  ", "Tell me about your last project."},
		{"Walk me through it!", "Walk me through it!"},
		{"I see. Excellent. How", "How?"},
		{"Perfect.", "?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Refine(tt.in), "input %q", tt.in)
	}
}

func TestMainQuestionPrompt(t *testing.T) {
	longAnswer := strings.Repeat("x", 300)
	in := MainQuestionInput{
		JobDescription: "Senior Go engineer",
		ResumeText:     "Built payment systems",
		QuestionCount:  3,
		MaxQuestions:   8,
		Stage:          StageAt(2),
		History: []Turn{
			{Question: "Q1", Answer: "A1"},
			{Question: "Q2", Answer: longAnswer},
		},
	}

	msgs := MainQuestionPrompt(in)
	require.Len(t, msgs, 2+2*len(in.History)+1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)

	ctx := msgs[1].Content
	assert.Contains(t, ctx, "Progress: 3/8")
	assert.Contains(t, ctx, "technical_assessment")
	assert.Contains(t, ctx, in.Stage.Purpose)
	assert.Contains(t, ctx, in.Stage.QuestionStyle)
	assert.Contains(t, ctx, "Senior Go engineer")
	assert.Contains(t, ctx, "Built payment systems")
	assert.Contains(t, ctx, "A: "+strings.Repeat("x", 200)+"...")
	assert.NotContains(t, ctx, strings.Repeat("x", 201))

	assert.Equal(t, "Previous Question 1: Q1", msgs[2].Content)
	assert.Equal(t, "Candidate Response 2: "+longAnswer, msgs[5].Content)

	last := msgs[len(msgs)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Contains(t, last.Content, "exactly one conversational question")
	assert.Contains(t, last.Content, "question 4 of 8")
}

func TestMainQuestionPromptWithoutHistory(t *testing.T) {
	msgs := MainQuestionPrompt(MainQuestionInput{QuestionCount: 1, MaxQuestions: 8, Stage: StageAt(0)})
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[2].Content, "Starting this stage")
}

func TestFollowUpPrompt(t *testing.T) {
	msgs := FollowUpPrompt(StageAt(1), "I led the migration")
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "I led the migration")
	assert.Contains(t, msgs[0].Content, "experience_deep_dive")
	assert.Contains(t, msgs[0].Content, "1-2 sentences")
}

func TestFormatStageTable(t *testing.T) {
	got := FormatStageTable([]StageAverage{
		{Stage: "introduction", Average: 4},
		{Stage: "technical_assessment", Average: 6.26},
	})
	assert.Equal(t, "introduction: 4.0/10, technical_assessment: 6.3/10, ", got)
}

func TestFinalizationPrompts(t *testing.T) {
	sum := SummaryPrompt(6.5, "introduction: 6.5/10, ")
	require.Len(t, sum, 1)
	assert.Contains(t, sum[0].Content, "6.5/10")
	assert.Contains(t, sum[0].Content, "introduction: 6.5/10, ")

	rec := RecommendationPrompt(6.5)
	require.Len(t, rec, 1)
	assert.Contains(t, rec[0].Content, "\"Yes\" or \"No\"")
}

func TestStagesCatalog(t *testing.T) {
	all := Stages()
	require.Len(t, all, StageCount)
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.FallbackQuestion)
	}
	assert.Equal(t, []string{
		"introduction", "experience_deep_dive", "technical_assessment",
		"role_specific_fit", "behavioral_insights", "closing_exploration",
	}, names)

	all[0].Name = "mutated"
	assert.Equal(t, "introduction", StageAt(0).Name)
	assert.Equal(t, "closing_exploration", StageAt(99).Name)
	assert.Equal(t, "introduction", StageAt(-1).Name)
}
