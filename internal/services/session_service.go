package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/utils"
)

const completedSessionTTL = 10 * time.Minute

type SessionService interface {
	Get(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	LatestByResume(ctx context.Context, resumeID string) (*models.InterviewSession, error)
	Scores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error)
	Analytics(ctx context.Context, jobID string) (*models.JobAnalytics, error)
	Reset(ctx context.Context, sessionID string) error
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	jobs     mongorepo.JobRepository
	scores   pgrepo.ScoreRepository
	cache    cache.Cache
	log      logrus.FieldLogger
}

// NewSessionService builds the read side. c may be nil to disable caching.
func NewSessionService(sessions mongorepo.SessionRepository, jobs mongorepo.JobRepository, scores pgrepo.ScoreRepository, c cache.Cache, log logrus.FieldLogger) SessionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &sessionService{sessions: sessions, jobs: jobs, scores: scores, cache: c, log: log}
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	key := cache.SessionKey(sessionID)
	if s.cache != nil {
		var cached models.InterviewSession
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "Interview session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	// in-flight sessions keep changing
	if s.cache != nil && out.EndedAt != nil {
		if err := s.cache.SetJSON(ctx, key, out, completedSessionTTL); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("session cache write failed")
		}
	}
	return out, nil
}

func (s *sessionService) LatestByResume(ctx context.Context, resumeID string) (*models.InterviewSession, error) {
	const op = "SessionService.LatestByResume"

	if resumeID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume_id is required", nil)
	}

	out, err := s.sessions.LatestByResume(ctx, resumeID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "No interview session found for that resume_id", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) Scores(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	const op = "SessionService.Scores"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if s.scores == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "score log is not configured", nil)
	}

	rows, err := s.scores.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list scores", err)
	}
	return rows, nil
}

func (s *sessionService) Analytics(ctx context.Context, jobID string) (*models.JobAnalytics, error) {
	const op = "SessionService.Analytics"

	if jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id is required", nil)
	}

	key := cache.AnalyticsKey(jobID)
	if s.cache != nil {
		var cached models.JobAnalytics
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stages, err := s.sessions.StageAnalytics(ctx, jobID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate stage analytics", err)
	}
	overall, err := s.sessions.OverallAnalytics(ctx, jobID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate overall analytics", err)
	}

	out := &models.JobAnalytics{JobID: jobID, StageAnalytics: stages, OverallStats: overall}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, cache.AnalyticsTTL); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Warn("analytics cache write failed")
		}
	}
	return out, nil
}

func (s *sessionService) Reset(ctx context.Context, sessionID string) error {
	const op = "SessionService.Reset"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	doc, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "Interview session not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeInternal, op, "failed to delete session", err)
	}
	if err := s.jobs.ClearInterview(ctx, doc.JobID, doc.ResumeID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeInternal, op, "failed to clear interview flags", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.SessionKey(sessionID), cache.AnalyticsKey(doc.JobID)); err != nil {
			s.log.WithError(err).WithField("session_id", sessionID).Warn("cache invalidation failed")
		}
	}
	s.log.WithFields(logrus.Fields{"session_id": sessionID, "job_id": doc.JobID}).Info("interview session reset")
	return nil
}
