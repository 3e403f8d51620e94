package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ScoreRecord is the append-only analytics copy of a scored answer.
type ScoreRecord struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID      string `gorm:"column:session_id;type:text;index" json:"session_id"`
	JobID          string `gorm:"column:job_id;type:text;index" json:"job_id"`
	ResumeID       string `gorm:"column:resume_id;type:text;index" json:"resume_id"`
	QuestionNumber int    `gorm:"column:question_number;type:integer" json:"question_number"`
	Question       string `gorm:"column:question;type:text" json:"question"`
	Answer         string `gorm:"column:answer;type:text" json:"answer"`
	Score          int    `gorm:"column:score;type:integer" json:"score"`
	Stage          string `gorm:"column:stage;type:text;index" json:"stage"`

	// substance indicators found in the answer
	Indicators pq.StringArray `gorm:"column:indicators;type:text[]" json:"indicators"`
	// scorer, word_count
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	Timestamp time.Time `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
}

func (ScoreRecord) TableName() string { return "interview_scores" }
