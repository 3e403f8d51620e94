package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobProfile is owned by the hiring side; interviews only read it and flag completion.
type JobProfile struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title,omitempty" json:"title,omitempty"`
	Description   string             `bson:"description" json:"description"`
	ScoredResumes []ScoredResume     `bson:"scoredResumes" json:"scoredResumes"`
}

type ScoredResume struct {
	ResumeID          string             `bson:"resumeId" json:"resumeId"`
	Text              string             `bson:"text" json:"text"`
	InterviewSchedule *InterviewSchedule `bson:"interview_schedule,omitempty" json:"interview_schedule,omitempty"`
	InterviewDone     bool               `bson:"interviewDone,omitempty" json:"interviewDone,omitempty"`
	SessionID         string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
}

type InterviewSchedule struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// FindResume returns the scored entry for resumeID, or nil.
func (j *JobProfile) FindResume(resumeID string) *ScoredResume {
	for i := range j.ScoredResumes {
		if j.ScoredResumes[i].ResumeID == resumeID {
			return &j.ScoredResumes[i]
		}
	}
	return nil
}
