package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/datatypes"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
)

var quitWords = map[string]struct{}{
	"quit":          {},
	"exit":          {},
	"end interview": {},
}

type InterviewDriver interface {
	// Run drives one opened interview over conn until it is finalized.
	Run(ctx context.Context, conn Conn, opened *OpenedInterview) error
}

type DriverDeps struct {
	Sessions  mongorepo.SessionRepository
	Scores    pgrepo.ScoreRepository
	Finalizer FinalizeService
	Generator interview.Generator
	Config    config.Interview
	Metrics   *metrics.Recorder
	Logger    logrus.FieldLogger
	// NewSelector picks clarification rephrasings; seeded from the clock when nil.
	NewSelector func() interview.Selector
	Now         func() time.Time
}

type interviewDriver struct {
	DriverDeps
}

func NewInterviewDriver(d DriverDeps) InterviewDriver {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewSelector == nil {
		d.NewSelector = func() interview.Selector {
			return interview.NewSeededSelector(uint64(time.Now().UnixNano()))
		}
	}
	return &interviewDriver{DriverDeps: d}
}

// run is the state of one connection.
type run struct {
	*interviewDriver
	conn Conn
	rec  *models.InterviewSession
	sess *interview.Session
	log  *logrus.Entry
}

func (d *interviewDriver) Run(ctx context.Context, conn Conn, opened *OpenedInterview) error {
	rec := opened.Record
	log := logger.ForSession(d.Logger, rec.SessionID, rec.JobID, rec.ResumeID)

	maxQ := rec.MaxQuestions
	if maxQ <= 0 {
		maxQ = d.Config.MaxQuestions
	}
	r := &run{
		interviewDriver: d,
		conn:            conn,
		rec:             rec,
		log:             log,
		sess: interview.NewSession(opened.JobDescription, opened.ResumeText, d.Generator, interview.Options{
			MaxQuestions:        maxQ,
			ModelScoring:        d.Config.ModelScoring,
			Selector:            d.NewSelector(),
			Logger:              log,
			OnGenerationFailure: d.Metrics.GenerationFailed,
		}),
	}
	d.Metrics.SessionOpened()
	log.Info("interview session started")

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	remaining := d.Config.Deadline - d.Now().Sub(rec.StartedAt)
	if remaining < 0 {
		remaining = 0
	}
	timer := time.NewTimer(remaining)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-timer.C:
			log.Warn("interview deadline reached")
			cancel()
			r.finalize(ctx, TriggerDeadline)
		case <-stop:
		}
	}()

	trigger := r.loop(loopCtx)
	if loopCtx.Err() != nil && ctx.Err() == nil {
		trigger = TriggerDeadline
	}

	close(stop)
	timer.Stop()
	cancel()
	r.sess.Complete()

	r.finalize(ctx, trigger)
	wg.Wait()
	return nil
}

func (r *run) finalize(ctx context.Context, trigger string) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.Config.FinalizeTimeout)
	defer cancel()
	if _, err := r.Finalizer.Finalize(fctx, r.rec.SessionID, r.conn, trigger); err != nil {
		r.log.WithError(err).Error("finalization failed")
	}
}

// loop runs gating and the active turn loop, returning what ended them.
func (r *run) loop(ctx context.Context) string {
	if !r.gate(ctx) {
		return TriggerDisconnect
	}

	opening, err := r.sess.NextUtterance(ctx, "")
	if err != nil {
		return TriggerDisconnect
	}
	lastQ := opening.Text
	r.Metrics.Turn(opening.Kind.String())
	if err := r.sendTurn(lastQ); err != nil {
		return TriggerDisconnect
	}

	for {
		msg, fields, ok := r.read()
		if ctx.Err() != nil {
			// finalized by the deadline while this read was blocked
			return TriggerDeadline
		}
		if !ok {
			return TriggerDisconnect
		}
		if msg == nil {
			continue
		}

		if kind := TelemetryKind(msg.Type); isTelemetry(kind) {
			r.recordTelemetry(ctx, kind, fields, true, msg.Count)
			continue
		}

		answer := strings.TrimSpace(msg.Answer)
		if answer == "" {
			_ = r.conn.WriteJSON(ErrorMessage{Error: MsgEmptyAnswer})
			continue
		}
		if _, quit := quitWords[strings.ToLower(answer)]; quit {
			if msg.Reason == fullscreenTermination {
				r.log.WithField("violation_count", msg.ViolationCount).Warn("interview terminated for fullscreen violations")
				if err := r.Sessions.SetTermination(ctx, r.rec.SessionID, fullscreenTermination, msg.ViolationCount, r.Now()); err != nil {
					r.log.WithError(err).Error("failed to record termination")
				}
			}
			return TriggerCandidateEnded
		}

		score := r.sess.ScoreAnswer(ctx, lastQ, answer)
		turn := r.sess.AddTurn(lastQ, answer, score)
		r.Metrics.AnswerScored(score)
		r.persistTurn(ctx, turn)

		next, err := r.sess.NextUtterance(ctx, answer)
		if err != nil {
			if ctx.Err() != nil {
				return TriggerDeadline
			}
			r.log.WithError(err).Error("next question failed, using stage fallback")
			next = interview.Utterance{Text: r.sess.FallbackQuestion(), Kind: interview.KindMain}
		}
		if ctx.Err() != nil {
			return TriggerDeadline
		}
		lastQ = next.Text
		r.Metrics.Turn(next.Kind.String())
		if err := r.sendTurn(lastQ); err != nil {
			return TriggerDisconnect
		}

		if r.sess.Done() {
			r.log.WithField("question_count", r.sess.QuestionCount()).Info("question budget reached")
			return TriggerCompleted
		}
	}
}

// gate waits for the candidate to start screen sharing. It returns false when the
// connection goes away first.
func (r *run) gate(ctx context.Context) bool {
	if err := r.sendSetup(TypeScreenShareRequest, screenShareRequestText); err != nil {
		return false
	}
	for {
		msg, fields, ok := r.read()
		if !ok || ctx.Err() != nil {
			return false
		}
		if msg == nil {
			continue
		}

		switch kind := TelemetryKind(msg.Type); {
		case msg.Type == "screen-share":
			switch msg.Action {
			case "started":
				r.log.Info("screen sharing started")
				err := r.conn.WriteJSON(TurnMessage{
					Text:          screenShareConfirmedText,
					Type:          TypeScreenShareConfirmed,
					MaxQuestions:  r.sess.MaxQuestions(),
					CurrentStage:  r.sess.CurrentStage().Name,
					StageProgress: r.sess.StageProgress(),
				})
				return err == nil
			case "declined":
				if err := r.sendSetup(TypeScreenShareRequired, screenShareDeclinedText); err != nil {
					return false
				}
			case "ended":
				if err := r.sendSetup(TypeScreenShareRequired, screenShareEndedText); err != nil {
					return false
				}
			}
		case isTelemetry(kind):
			r.recordTelemetry(ctx, kind, fields, false, msg.Count)
		default:
			_ = r.conn.WriteJSON(ErrorMessage{Error: MsgScreenShareFirst})
		}
	}
}

// read returns ok=false when the connection is gone and a nil message for a frame
// that could not be decoded (already answered with an error).
func (r *run) read() (*inboundMessage, map[string]any, bool) {
	var raw json.RawMessage
	if err := r.conn.ReadJSON(&raw); err != nil {
		// the frame was consumed; the connection is still usable
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			_ = r.conn.WriteJSON(ErrorMessage{Error: MsgInvalidMessage})
			return nil, nil, true
		}
		r.log.WithError(err).Debug("connection read ended")
		return nil, nil, false
	}
	msg, fields, err := decodeInbound(raw)
	if err != nil {
		_ = r.conn.WriteJSON(ErrorMessage{Error: MsgInvalidMessage})
		return nil, nil, true
	}
	return &msg, fields, true
}

func isTelemetry(k TelemetryKind) bool {
	_, ok := k.Field()
	return ok
}

func (r *run) sendSetup(typ, text string) error {
	return r.conn.WriteJSON(TurnMessage{
		Text:          text,
		Type:          typ,
		MaxQuestions:  r.sess.MaxQuestions(),
		CurrentStage:  setupStage,
		StageProgress: setupProgress,
	})
}

func (r *run) sendTurn(text string) error {
	return r.conn.WriteJSON(TurnMessage{
		Text:          text,
		QuestionCount: r.sess.QuestionCount(),
		MaxQuestions:  r.sess.MaxQuestions(),
		CurrentStage:  r.sess.CurrentStage().Name,
		StageProgress: r.sess.StageProgress(),
	})
}

func (r *run) recordTelemetry(ctx context.Context, kind TelemetryKind, fields map[string]any, interviewing bool, count int) {
	field, _ := kind.Field()

	ev := bson.M{}
	for k, v := range fields {
		ev[k] = v
	}
	ev["timestamp"] = r.Now().UTC()

	if kind == TelemetryFullscreenViolation {
		if interviewing {
			ev["session_stage"] = "interview"
			ev["question_number"] = r.sess.QuestionCount()
		} else {
			ev["session_stage"] = setupStage
		}
		r.log.WithFields(logrus.Fields{"count": count, "session_stage": ev["session_stage"]}).Warn("fullscreen violation detected")
	}

	if err := r.Sessions.PushTelemetry(ctx, r.rec.SessionID, field, ev); err != nil {
		r.log.WithError(err).WithField("telemetry", string(kind)).Error("failed to record telemetry")
	}
}

func (r *run) persistTurn(ctx context.Context, t interview.Turn) {
	now := r.Now().UTC()
	log := r.log.WithFields(logrus.Fields{"question_number": t.QuestionNumber, "stage": t.Stage})

	if err := r.Sessions.PushHistory(ctx, r.rec.SessionID, models.HistoryEntry{
		QuestionNumber: t.QuestionNumber,
		Question:       t.Question,
		Answer:         t.Answer,
		Score:          t.Score,
		Stage:          t.Stage,
		Timestamp:      now,
	}); err != nil {
		log.WithError(err).Error("failed to append history")
	}

	if err := r.Sessions.PushStageProgress(ctx, r.rec.SessionID, models.StageProgress{
		Stage:          t.Stage,
		QuestionNumber: t.QuestionNumber,
		Timestamp:      now,
	}); err != nil {
		log.WithError(err).Error("failed to append stage progression")
	}

	if r.Scores == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"model_scoring": r.Config.ModelScoring,
		"word_count":    len(strings.Fields(t.Answer)),
	})
	score := 0
	if t.Score != nil {
		score = *t.Score
	}
	if err := r.Scores.Insert(ctx, &models.ScoreRecord{
		ID:             uuid.NewString(),
		SessionID:      r.rec.SessionID,
		JobID:          r.rec.JobID,
		ResumeID:       r.rec.ResumeID,
		QuestionNumber: t.QuestionNumber,
		Question:       t.Question,
		Answer:         t.Answer,
		Score:          score,
		Stage:          t.Stage,
		Indicators:     interview.SubstanceIndicators(t.Answer),
		Metadata:       datatypes.JSON(meta),
		Timestamp:      now,
	}); err != nil {
		log.WithError(err).Error("failed to record score")
	}
	log.WithField("score", score).Info("answer recorded")
}
