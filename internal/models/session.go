package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterviewSession is the persisted document for one interview connection.
type InterviewSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	JobID     string             `bson:"job_id" json:"job_id"`
	ResumeID  string             `bson:"resume_id" json:"resume_id"`

	ScheduledStart time.Time  `bson:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd   time.Time  `bson:"scheduled_end" json:"scheduled_end"`
	StartedAt      time.Time  `bson:"started_at" json:"started_at"`
	EndedAt        *time.Time `bson:"ended_at,omitempty" json:"ended_at"`

	MaxQuestions     int             `bson:"max_questions" json:"max_questions"`
	History          []HistoryEntry  `bson:"history" json:"history"`
	StageProgression []StageProgress `bson:"stage_progression" json:"stage_progression"`

	AverageScore   *float64         `bson:"average_score,omitempty" json:"average_score"`
	Summary        string           `bson:"summary,omitempty" json:"summary"`
	StageBreakdown map[string][]int `bson:"stage_breakdown,omitempty" json:"stage_breakdown"`
	Recommendation *string          `bson:"recommendation,omitempty" json:"recommendation"`
	ReportPath     string           `bson:"report_path,omitempty" json:"report_path,omitempty"`

	// proctoring telemetry, recorded as received
	TabEvents            []bson.M `bson:"tabEvents,omitempty" json:"tabEvents,omitempty"`
	GazeData             []bson.M `bson:"gazeData,omitempty" json:"gazeData,omitempty"`
	ObjectEvents         []bson.M `bson:"objectEvents,omitempty" json:"objectEvents,omitempty"`
	WarningEvents        []bson.M `bson:"warningEvents,omitempty" json:"warningEvents,omitempty"`
	FullscreenViolations []bson.M `bson:"fullscreenViolations,omitempty" json:"fullscreenViolations,omitempty"`

	TerminatedReason string     `bson:"terminated_reason,omitempty" json:"terminated_reason,omitempty"`
	ViolationCount   int        `bson:"violation_count,omitempty" json:"violation_count,omitempty"`
	TerminatedAt     *time.Time `bson:"terminated_at,omitempty" json:"terminated_at,omitempty"`
}

type HistoryEntry struct {
	QuestionNumber int       `bson:"question_number" json:"question_number"`
	Question       string    `bson:"question" json:"question"`
	Answer         string    `bson:"answer" json:"answer"`
	Score          *int      `bson:"score" json:"score"`
	Stage          string    `bson:"stage" json:"stage"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

type StageProgress struct {
	Stage          string    `bson:"stage" json:"stage"`
	QuestionNumber int       `bson:"question_number" json:"question_number"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// FinalResult is what finalization writes back onto the session document.
type FinalResult struct {
	EndedAt        time.Time
	AverageScore   *float64
	Summary        string
	StageBreakdown map[string][]int
	Recommendation *string
	ReportPath     string
}

type StageAnalytics struct {
	Stage         string  `bson:"_id" json:"stage"`
	AvgScore      float64 `bson:"avg_score" json:"avg_score"`
	QuestionCount int     `bson:"question_count" json:"question_count"`
	Scores        []int   `bson:"scores" json:"scores"`
}

type OverallAnalytics struct {
	TotalInterviews int      `bson:"total_interviews" json:"total_interviews"`
	AvgScore        *float64 `bson:"avg_score" json:"avg_score"`
	CompletionRate  float64  `bson:"completion_rate" json:"completion_rate"`
}

type JobAnalytics struct {
	JobID          string            `json:"job_id"`
	StageAnalytics []StageAnalytics  `json:"stage_analytics"`
	OverallStats   *OverallAnalytics `json:"overall_stats"`
}
