package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yoointerview/internal/models"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	MsgJobNotFound        = "Job not found"
	MsgResumeNotFound     = "Resume not found"
	MsgNotScheduled       = "Interview not scheduled for this candidate"
	MsgWindowNotOpen      = "Interview window hasn't opened yet"
	MsgWindowExpired      = "Interview window has expired"
	MsgEmptyAnswer        = "Empty answer received"
	MsgScreenShareFirst   = "Please start screen sharing before answering"
	MsgInvalidMessage     = "Invalid message"
	fullscreenTermination = "fullscreen_violations"
)

// WindowNotOpenError is returned when a candidate connects before the scheduled start.
type WindowNotOpenError struct {
	StartsAt time.Time
}

func (e *WindowNotOpenError) Error() string {
	return fmt.Sprintf("interview window opens at %s", e.StartsAt.UTC().Format(time.RFC3339))
}

// OpenedInterview is a validated, persisted session ready to be driven.
type OpenedInterview struct {
	Record         *models.InterviewSession
	JobDescription string
	ResumeText     string
}

type InterviewService interface {
	Open(ctx context.Context, jobID, resumeID string, now time.Time) (*OpenedInterview, error)
}

type interviewService struct {
	jobs         mongorepo.JobRepository
	sessions     mongorepo.SessionRepository
	maxQuestions int
}

func NewInterviewService(jobs mongorepo.JobRepository, sessions mongorepo.SessionRepository, maxQuestions int) InterviewService {
	return &interviewService{jobs: jobs, sessions: sessions, maxQuestions: maxQuestions}
}

func (s *interviewService) Open(ctx context.Context, jobID, resumeID string, now time.Time) (*OpenedInterview, error) {
	const op = "InterviewService.Open"

	if jobID == "" || resumeID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id and resume_id are required", nil)
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, MsgJobNotFound, err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}

	entry := job.FindResume(resumeID)
	if entry == nil {
		return nil, utils.E(utils.CodeNotFound, op, MsgResumeNotFound, nil)
	}

	sched := entry.InterviewSchedule
	if sched == nil {
		return nil, utils.E(utils.CodeForbidden, op, MsgNotScheduled, nil)
	}
	now = now.UTC()
	if now.Before(sched.Start) {
		return nil, utils.E(utils.CodeForbidden, op, MsgWindowNotOpen, &WindowNotOpenError{StartsAt: sched.Start})
	}
	if now.After(sched.End) {
		return nil, utils.E(utils.CodeForbidden, op, MsgWindowExpired, nil)
	}

	rec := &models.InterviewSession{
		SessionID:      uuid.NewString(),
		JobID:          jobID,
		ResumeID:       resumeID,
		ScheduledStart: sched.Start,
		ScheduledEnd:   sched.End,
		StartedAt:      now,
		MaxQuestions:   s.maxQuestions,
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview session", err)
	}

	return &OpenedInterview{
		Record:         rec,
		JobDescription: job.Description,
		ResumeText:     entry.Text,
	}, nil
}
