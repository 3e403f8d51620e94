package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/providers/llm"
)

const (
	DefaultMaxQuestions = 8
	followUpFallback    = "That's interesting! Can you tell me more about that?"
)

var (
	ErrSessionCompleted = errors.New("interview session already completed")
	ErrEmptyGeneration  = errors.New("generation returned no text")
)

// Generator is the language-generation service as seen by a session.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "not_started"
	}
}

// Turn is one answered question. Score is nil when the answer was not scored.
type Turn struct {
	Question       string
	Answer         string
	Score          *int
	Stage          string
	QuestionNumber int
}

// Utterance is what the interviewer says next and why.
type Utterance struct {
	Text string
	Kind TurnKind
}

type Options struct {
	MaxQuestions int
	ModelScoring bool
	Selector     Selector
	Logger       logrus.FieldLogger
	// OnGenerationFailure is called with "main", "follow_up" or "scoring" when the generator fails.
	OnGenerationFailure func(purpose string)
}

// Session owns the stage progression and conversation history of one interview.
// It is not safe for concurrent use.
type Session struct {
	jobDescription string
	resumeText     string
	maxQuestions   int

	state         State
	questionCount int
	stageIndex    int
	history       []Turn

	gen          Generator
	selector     Selector
	modelScoring bool
	log          logrus.FieldLogger
	onGenFailure func(string)
}

func NewSession(jobDescription, resumeText string, gen Generator, opts Options) *Session {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = DefaultMaxQuestions
	}
	if opts.Selector == nil {
		opts.Selector = SelectorFunc(func(int) int { return 0 })
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Session{
		jobDescription: jobDescription,
		resumeText:     resumeText,
		maxQuestions:   opts.MaxQuestions,
		gen:            gen,
		selector:       opts.Selector,
		modelScoring:   opts.ModelScoring,
		log:            opts.Logger,
		onGenFailure:   opts.OnGenerationFailure,
	}
}

func (s *Session) State() State { return s.state }
func (s *Session) QuestionCount() int { return s.questionCount }
func (s *Session) MaxQuestions() int { return s.maxQuestions }
func (s *Session) StageIndex() int { return s.stageIndex }
func (s *Session) CurrentStage() Stage { return StageAt(s.stageIndex) }
func (s *Session) FallbackQuestion() string { return s.CurrentStage().FallbackQuestion }

// StageProgress renders the 1-based stage position, e.g. "2/6".
func (s *Session) StageProgress() string {
	return fmt.Sprintf("%d/%d", s.stageIndex+1, StageCount)
}

// Done reports whether the main-question budget is used up.
func (s *Session) Done() bool { return s.questionCount >= s.maxQuestions }

// Complete moves the session to its terminal state.
func (s *Session) Complete() { s.state = StateCompleted }

func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) currentStageTurns() []Turn {
	name := s.CurrentStage().Name
	var out []Turn
	for _, t := range s.history {
		if t.Stage == name {
			out = append(out, t)
		}
	}
	return out
}

// NextUtterance decides what to say after candidateInput. The first call returns the
// opening greeting regardless of input.
func (s *Session) NextUtterance(ctx context.Context, candidateInput string) (Utterance, error) {
	switch s.state {
	case StateCompleted:
		return Utterance{}, ErrSessionCompleted
	case StateNotStarted:
		s.state = StateInProgress
		s.questionCount = 1
		s.stageIndex = StageIndexFor(s.questionCount, s.maxQuestions)
		return Utterance{Text: OpeningGreeting, Kind: KindMain}, nil
	}

	kind := Classify(candidateInput, s.currentStageTurns())
	log := s.log.WithFields(logrus.Fields{
		"stage":          s.CurrentStage().Name,
		"question_count": s.questionCount,
		"turn_kind":      kind.String(),
	})

	switch kind {
	case KindClarification:
		if err := ctx.Err(); err != nil {
			return Utterance{}, err
		}
		log.Info("clarification requested")
		return Utterance{Text: s.clarify(), Kind: kind}, nil

	case KindFollowUp:
		text, err := s.generate(ctx, FollowUpPrompt(s.CurrentStage(), candidateInput))
		if err != nil {
			if ctx.Err() != nil {
				return Utterance{}, ctx.Err()
			}
			log.WithError(err).Error("follow-up generation failed, using fallback")
			s.generationFailed("follow_up")
			return Utterance{Text: followUpFallback, Kind: kind}, nil
		}
		return Utterance{Text: Refine(text), Kind: kind}, nil
	}

	prompt := MainQuestionPrompt(MainQuestionInput{
		JobDescription: s.jobDescription,
		ResumeText:     s.resumeText,
		QuestionCount:  s.questionCount,
		MaxQuestions:   s.maxQuestions,
		Stage:          s.CurrentStage(),
		History:        s.history,
	})
	var question string
	text, err := s.generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return Utterance{}, ctx.Err()
		}
		log.WithError(err).Error("main question generation failed, using stage fallback")
		s.generationFailed("main")
		question = s.FallbackQuestion()
	} else {
		question = Refine(text)
	}

	s.questionCount++
	s.stageIndex = StageIndexFor(s.questionCount, s.maxQuestions)
	log.WithField("next_stage", s.CurrentStage().Name).Info("main question issued")
	return Utterance{Text: question, Kind: KindMain}, nil
}

func (s *Session) clarify() string {
	if len(s.history) == 0 {
		return clarificationWithoutHistory
	}
	options := rephrasings(s.history[len(s.history)-1].Question)
	i := s.selector.Pick(len(options))
	if i < 0 || i >= len(options) {
		i = 0
	}
	return options[i]
}

// ScoreAnswer grades an answer on a 1-10 scale. Unless model scoring is enabled the
// heuristic scorer is used; any unusable model response falls back to it as well.
func (s *Session) ScoreAnswer(ctx context.Context, question, answer string) int {
	if !s.modelScoring || s.gen == nil {
		return FallbackScore(answer)
	}
	raw, err := s.gen.Generate(ctx, ScoringPrompt(s.CurrentStage(), question, answer))
	if err != nil {
		s.log.WithError(err).Warn("model scoring failed, using heuristic score")
		s.generationFailed("scoring")
		return FallbackScore(answer)
	}
	score, ok := ParseScore(raw)
	if !ok {
		s.log.WithField("raw_score", raw).Warn("model returned an unusable score, using heuristic score")
		return FallbackScore(answer)
	}
	return score
}

// AddTurn appends an answered question under the stage currently in effect.
func (s *Session) AddTurn(question, answer string, score int) Turn {
	sc := score
	t := Turn{
		Question:       question,
		Answer:         answer,
		Score:          &sc,
		Stage:          s.CurrentStage().Name,
		QuestionNumber: s.questionCount,
	}
	s.history = append(s.history, t)
	return t
}

func (s *Session) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	if s.gen == nil {
		return "", errors.New("no generator configured")
	}
	text, err := s.gen.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}

func (s *Session) generationFailed(purpose string) {
	if s.onGenFailure != nil {
		s.onGenFailure(purpose)
	}
}
