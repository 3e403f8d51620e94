package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/interview"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	TriggerCompleted      = "completed"
	TriggerDeadline       = "deadline"
	TriggerDisconnect     = "disconnect"
	TriggerCandidateEnded = "candidate_ended"
)

type FinalizeService interface {
	// Finalize scores, persists and announces the end of a session. Only the first
	// call per session does any work; later calls return false.
	Finalize(ctx context.Context, sessionID string, conn Conn, trigger string) (bool, error)
}

type FinalizeDeps struct {
	Sessions  mongorepo.SessionRepository
	Jobs      mongorepo.JobRepository
	Generator interview.Generator
	Latch     Latch
	Cache     cache.Cache
	Events    cache.Publisher
	Archive   storage.Uploader
	Metrics   *metrics.Recorder
	Logger    logrus.FieldLogger
	Grace     time.Duration
	Now       func() time.Time
}

type finalizeService struct {
	FinalizeDeps
}

func NewFinalizeService(d FinalizeDeps) FinalizeService {
	if d.Latch == nil {
		d.Latch = NewMemoryLatch(defaultLatchTTL)
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &finalizeService{FinalizeDeps: d}
}

type archivedReport struct {
	SessionID  string                `json:"session_id"`
	JobID      string                `json:"job_id"`
	ResumeID   string                `json:"resume_id"`
	StartedAt  time.Time             `json:"started_at"`
	EndedAt    time.Time             `json:"ended_at"`
	Trigger    string                `json:"trigger"`
	Assessment CompletionMessage     `json:"assessment"`
	History    []models.HistoryEntry `json:"history"`
}

func (s *finalizeService) Finalize(ctx context.Context, sessionID string, conn Conn, trigger string) (bool, error) {
	const op = "FinalizeService.Finalize"
	log := s.Logger.WithFields(logrus.Fields{"session_id": sessionID, "trigger": trigger})

	ok, err := s.Latch.Acquire(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("distributed finalize latch unavailable, relying on local latch")
	}
	if !ok {
		log.Debug("session already finalized")
		return false, nil
	}

	if conn != nil {
		defer conn.Close()
	}

	doc, err := s.Sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return true, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	log = log.WithFields(logrus.Fields{"job_id": doc.JobID, "resume_id": doc.ResumeID})
	log.WithField("history_entries", len(doc.History)).Info("finalizing interview")

	answers := make([]interview.ScoredAnswer, 0, len(doc.History))
	for _, h := range doc.History {
		answers = append(answers, interview.ScoredAnswer{Stage: h.Stage, Score: h.Score})
	}
	a := interview.Assess(answers)

	summary := interview.NotEnoughDataSummary
	var recommendation *string
	if a.Average != nil {
		summary = s.summary(ctx, log, a)
		rec := s.recommendation(ctx, log, *a.Average)
		recommendation = &rec
	}

	payload := CompletionMessage{
		Text:           completionText,
		Type:           TypeInterviewComplete,
		Summary:        summary,
		AverageScore:   a.Average,
		StageBreakdown: a.Breakdown,
		Recommendation: recommendation,
	}

	endedAt := s.Now().UTC()
	result := models.FinalResult{
		EndedAt:        endedAt,
		AverageScore:   a.Average,
		Summary:        summary,
		StageBreakdown: a.Breakdown,
		Recommendation: recommendation,
	}

	if s.Archive != nil {
		path, err := s.archive(ctx, doc, payload, endedAt, trigger)
		if err != nil {
			log.WithError(err).Error("report archive failed")
		} else {
			result.ReportPath = path
		}
	}

	var persistErr error
	if err := s.Sessions.Finalize(ctx, sessionID, result); err != nil {
		log.WithError(err).Error("failed to persist final result")
		persistErr = utils.E(utils.CodeInternal, op, "failed to persist final result", err)
	}
	if err := s.Jobs.MarkInterviewDone(ctx, doc.JobID, doc.ResumeID, sessionID); err != nil {
		log.WithError(err).Warn("failed to mark job entry as interviewed")
	}
	if s.Cache != nil {
		if err := s.Cache.Del(ctx, cache.SessionKey(sessionID), cache.AnalyticsKey(doc.JobID)); err != nil {
			log.WithError(err).Warn("cache invalidation failed")
		}
	}
	if s.Events != nil {
		ev := map[string]any{"type": TypeInterviewComplete, "session_id": sessionID, "trigger": trigger, "average_score": a.Average}
		if err := s.Events.Publish(ctx, cache.StatusChannel(sessionID), ev); err != nil {
			log.WithError(err).Warn("status publish failed")
		}
	}
	s.Metrics.SessionFinalized(trigger, a.Average)

	if conn != nil {
		if err := conn.WriteJSON(payload); err != nil {
			log.WithError(err).Debug("completion payload not delivered")
		} else {
			s.pause(ctx)
		}
	}

	log.WithField("average_score", a.Average).Info("interview finalized")
	return true, persistErr
}

func (s *finalizeService) summary(ctx context.Context, log logrus.FieldLogger, a interview.Assessment) string {
	if s.Generator == nil {
		return interview.FallbackSummary(a)
	}
	table := interview.FormatStageTable(a.StageAverages)
	text, err := s.Generator.Generate(ctx, interview.SummaryPrompt(*a.Average, table))
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		log.WithError(err).Error("summary generation failed, using deterministic summary")
		s.Metrics.GenerationFailed("summary")
		return interview.FallbackSummary(a)
	}
	return text
}

func (s *finalizeService) recommendation(ctx context.Context, log logrus.FieldLogger, avg float64) string {
	if s.Generator == nil {
		return interview.FallbackRecommendation(avg)
	}
	text, err := s.Generator.Generate(ctx, interview.RecommendationPrompt(avg))
	text = strings.TrimSpace(text)
	if err != nil || !interview.ValidRecommendation(text) {
		log.WithError(err).WithField("raw_recommendation", text).Error("recommendation unusable, deciding on average")
		s.Metrics.GenerationFailed("recommendation")
		return interview.FallbackRecommendation(avg)
	}
	return text
}

func (s *finalizeService) archive(ctx context.Context, doc *models.InterviewSession, payload CompletionMessage, endedAt time.Time, trigger string) (string, error) {
	b, err := json.Marshal(archivedReport{
		SessionID:  doc.SessionID,
		JobID:      doc.JobID,
		ResumeID:   doc.ResumeID,
		StartedAt:  doc.StartedAt,
		EndedAt:    endedAt,
		Trigger:    trigger,
		Assessment: payload,
		History:    doc.History,
	})
	if err != nil {
		return "", err
	}
	return s.Archive.Upload(ctx, storage.ReportObjectName(doc.JobID, doc.SessionID), "application/json", bytes.NewReader(b))
}

func (s *finalizeService) pause(ctx context.Context) {
	if s.Grace <= 0 {
		return
	}
	t := time.NewTimer(s.Grace)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
