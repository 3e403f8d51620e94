package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/yoointerview/internal/providers/llm"
)

type fakeGenerator struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (f *fakeGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Tell me more about your work", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

const substantialAnswer = "I worked on a project where our team rebuilt the billing database from scratch"

func newTestSession(gen Generator, opts Options) *Session {
	return NewSession("Backend engineer, Go and Postgres", "Five years building APIs", gen, opts)
}

func TestOpeningGreeting(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestSession(gen, Options{})

	assert.Equal(t, StateNotStarted, s.State())
	u, err := s.NextUtterance(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, OpeningGreeting, u.Text)
	assert.Equal(t, KindMain, u.Kind)
	assert.Equal(t, 1, s.QuestionCount())
	assert.Equal(t, 0, s.StageIndex())
	assert.Equal(t, StateInProgress, s.State())
	assert.Empty(t, gen.calls, "opening must not call the generator")
}

func TestQuestionCountIgnoresClarificationsAndFollowUps(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{}
	s := newTestSession(gen, Options{MaxQuestions: 8})
	_, err := s.NextUtterance(ctx, "")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		s.AddTurn("q", "a", 4)
		u, err := s.NextUtterance(ctx, "short answer")
		require.NoError(t, err)
		assert.Equal(t, KindMain, u.Kind)

		c, err := s.NextUtterance(ctx, "sorry, can you repeat that?")
		require.NoError(t, err)
		assert.Equal(t, KindClarification, c.Kind)
	}
	assert.Equal(t, 5, s.QuestionCount())

	before := s.StageIndex()
	f, err := s.NextUtterance(ctx, substantialAnswer)
	require.NoError(t, err)
	assert.Equal(t, KindFollowUp, f.Kind)
	assert.Equal(t, 5, s.QuestionCount())
	assert.Equal(t, before, s.StageIndex())
}

func TestStageIndexFor(t *testing.T) {
	tests := []struct {
		count, max, want int
	}{
		{0, 8, 0},
		{1, 8, 0},
		{2, 8, 1},
		{6, 8, 5},
		{8, 8, 5},
		{20, 8, 5},
		{1, 12, 0},
		{2, 12, 0},
		{3, 12, 1},
		{12, 12, 5},
		{3, 3, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StageIndexFor(tt.count, tt.max), "count=%d max=%d", tt.count, tt.max)
	}
}

func TestStageIndexNeverDecreases(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&fakeGenerator{}, Options{MaxQuestions: 8})
	_, err := s.NextUtterance(ctx, "")
	require.NoError(t, err)

	prev := s.StageIndex()
	for i := 0; i < 12; i++ {
		_, err := s.NextUtterance(ctx, "ok")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.StageIndex(), prev)
		assert.Equal(t, StageIndexFor(s.QuestionCount(), 8), s.StageIndex())
		prev = s.StageIndex()
	}
	assert.Equal(t, StageCount-1, s.StageIndex())
}

func TestClarificationRephrasesLastQuestion(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&fakeGenerator{}, Options{Selector: SelectorFunc(func(n int) int { return n - 1 })})
	_, _ = s.NextUtterance(ctx, "")

	u, err := s.NextUtterance(ctx, "I don't understand")
	require.NoError(t, err)
	assert.Equal(t, clarificationWithoutHistory, u.Text)

	s.AddTurn("What drew you to this role?", "I don't understand", 3)
	u, err = s.NextUtterance(ctx, "I don't understand")
	require.NoError(t, err)
	assert.Equal(t, "I'll rephrase that: What drew you to this role?", u.Text)
	assert.Equal(t, 1, s.QuestionCount())
	assert.Len(t, s.History(), 1)
}

func TestSeededSelectorIsDeterministic(t *testing.T) {
	a := NewSeededSelector(42)
	b := NewSeededSelector(42)
	for i := 0; i < 20; i++ {
		x, y := a.Pick(5), b.Pick(5)
		assert.Equal(t, x, y)
		assert.True(t, x >= 0 && x < 5)
	}
}

func TestMainQuestionFallbackOnGeneratorError(t *testing.T) {
	ctx := context.Background()
	var failures []string
	gen := &fakeGenerator{err: errors.New("service down")}
	s := newTestSession(gen, Options{OnGenerationFailure: func(p string) { failures = append(failures, p) }})
	_, _ = s.NextUtterance(ctx, "")

	stage := s.CurrentStage()
	u, err := s.NextUtterance(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, stage.FallbackQuestion, u.Text)
	assert.Equal(t, 2, s.QuestionCount())

	f, err := s.NextUtterance(ctx, substantialAnswer)
	require.NoError(t, err)
	assert.Equal(t, followUpFallback, f.Text)
	assert.Equal(t, []string{"main", "follow_up"}, failures)
}

func TestNextUtteranceReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestSession(&fakeGenerator{err: context.Canceled}, Options{})
	_, _ = s.NextUtterance(ctx, "")
	cancel()

	_, err := s.NextUtterance(ctx, "fine")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.QuestionCount())
}

func TestGeneratedTextIsRefined(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{replies: []string{"Great question! How did you scale the service"}}
	s := newTestSession(gen, Options{})
	_, _ = s.NextUtterance(ctx, "")

	u, err := s.NextUtterance(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, "How did you scale the service?", u.Text)
}

func TestCompletedSessionRejectsTurns(t *testing.T) {
	s := newTestSession(&fakeGenerator{}, Options{})
	s.Complete()
	_, err := s.NextUtterance(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestDoneAfterMaxQuestions(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&fakeGenerator{}, Options{MaxQuestions: 3})
	_, _ = s.NextUtterance(ctx, "")
	assert.False(t, s.Done())
	_, _ = s.NextUtterance(ctx, "ok")
	_, _ = s.NextUtterance(ctx, "ok")
	assert.True(t, s.Done())

	// clarifications are still answered after the budget is reached
	s.AddTurn("last question", "what do you mean", 3)
	u, err := s.NextUtterance(ctx, "what do you mean")
	require.NoError(t, err)
	assert.Equal(t, KindClarification, u.Kind)
	assert.Equal(t, 3, s.QuestionCount())
}

func TestAddTurnRecordsStageAtScoringTime(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&fakeGenerator{}, Options{MaxQuestions: 8})
	_, _ = s.NextUtterance(ctx, "")

	turn := s.AddTurn(OpeningGreeting, "I like building things", 4)
	assert.Equal(t, "introduction", turn.Stage)
	assert.Equal(t, 1, turn.QuestionNumber)
	require.NotNil(t, turn.Score)
	assert.Equal(t, 4, *turn.Score)

	_, _ = s.NextUtterance(ctx, "I like building things")
	assert.Equal(t, "experience_deep_dive", s.CurrentStage().Name)
	assert.Equal(t, "introduction", s.History()[0].Stage)
}

func TestScoreAnswer(t *testing.T) {
	ctx := context.Background()
	answer := strings.Repeat("detail ", 60)

	t.Run("heuristic by default without generator calls", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{"10"}}
		s := newTestSession(gen, Options{})
		assert.Equal(t, 7, s.ScoreAnswer(ctx, "q", answer))
		assert.Empty(t, gen.calls)
	})

	t.Run("model score when enabled", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{"9"}}
		s := newTestSession(gen, Options{ModelScoring: true})
		assert.Equal(t, 9, s.ScoreAnswer(ctx, "q", answer))
		assert.Len(t, gen.calls, 1)
	})

	t.Run("out of range model score falls back", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{"42"}}
		s := newTestSession(gen, Options{ModelScoring: true})
		assert.Equal(t, 7, s.ScoreAnswer(ctx, "q", answer))
	})

	t.Run("model failure falls back", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("boom")}
		s := newTestSession(gen, Options{ModelScoring: true})
		assert.Equal(t, 3, s.ScoreAnswer(ctx, "q", "meh"))
	})
}

func TestEmptyGenerationUsesFallbacks(t *testing.T) {
	ctx := context.Background()
	var failures []string
	gen := &fakeGenerator{replies: []string{"   ", "", "\n"}}
	s := newTestSession(gen, Options{OnGenerationFailure: func(p string) { failures = append(failures, p) }})
	_, _ = s.NextUtterance(ctx, "")

	stage := s.CurrentStage()
	u, err := s.NextUtterance(ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, stage.FallbackQuestion, u.Text)
	assert.Equal(t, 2, s.QuestionCount())

	f, err := s.NextUtterance(ctx, substantialAnswer)
	require.NoError(t, err)
	assert.Equal(t, followUpFallback, f.Text)
	assert.Equal(t, []string{"main", "follow_up"}, failures)
}

func TestClarificationAfterCancelReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{}
	s := newTestSession(gen, Options{})
	_, _ = s.NextUtterance(ctx, "")
	s.AddTurn(OpeningGreeting, "I like Go", 4)
	cancel()

	_, err := s.NextUtterance(ctx, "sorry, can you repeat the question?")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.calls)
}
