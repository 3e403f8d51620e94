package postgres

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	"gorm.io/gorm"
)

type ScoreRepository interface {
	Insert(ctx context.Context, rec *models.ScoreRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ScoreRecord, error)
}

type scoreRepo struct {
	db *gorm.DB
}

func NewScoreRepo(db *gorm.DB) ScoreRepository {
	return &scoreRepo{db: db}
}

func (r *scoreRepo) Insert(ctx context.Context, rec *models.ScoreRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *scoreRepo) ListBySession(ctx context.Context, sessionID string) ([]models.ScoreRecord, error) {
	var rows []models.ScoreRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_number ASC").
		Find(&rows).Error
	return rows, err
}
