package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	LatestByResume(ctx context.Context, resumeID string) (*models.InterviewSession, error)
	PushHistory(ctx context.Context, sessionID string, entry models.HistoryEntry) error
	PushStageProgress(ctx context.Context, sessionID string, sp models.StageProgress) error
	PushTelemetry(ctx context.Context, sessionID, field string, event bson.M) error
	SetTermination(ctx context.Context, sessionID, reason string, violationCount int, at time.Time) error
	Finalize(ctx context.Context, sessionID string, res models.FinalResult) error
	Delete(ctx context.Context, sessionID string) error
	StageAnalytics(ctx context.Context, jobID string) ([]models.StageAnalytics, error)
	OverallAnalytics(ctx context.Context, jobID string) (*models.OverallAnalytics, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("interview_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	// $push needs arrays, not nulls
	if s.History == nil {
		s.History = []models.HistoryEntry{}
	}
	if s.StageProgression == nil {
		s.StageProgression = []models.StageProgress{}
	}
	res, err := r.col.InsertOne(ctx, s)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid
	}
	return nil
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) LatestByResume(ctx context.Context, resumeID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx,
		bson.M{"resume_id": resumeID},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}),
	).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) push(ctx context.Context, sessionID, field string, v any) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$push": bson.M{field: v}},
	)
	return err
}

func (r *sessionRepo) PushHistory(ctx context.Context, sessionID string, entry models.HistoryEntry) error {
	return r.push(ctx, sessionID, "history", entry)
}

func (r *sessionRepo) PushStageProgress(ctx context.Context, sessionID string, sp models.StageProgress) error {
	return r.push(ctx, sessionID, "stage_progression", sp)
}

func (r *sessionRepo) PushTelemetry(ctx context.Context, sessionID, field string, event bson.M) error {
	return r.push(ctx, sessionID, field, event)
}

func (r *sessionRepo) SetTermination(ctx context.Context, sessionID, reason string, violationCount int, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"terminated_reason": reason,
			"violation_count":   violationCount,
			"terminated_at":     at.UTC(),
		}},
	)
	return err
}

func (r *sessionRepo) Finalize(ctx context.Context, sessionID string, res models.FinalResult) error {
	set := bson.M{
		"ended_at":        res.EndedAt.UTC(),
		"average_score":   res.AverageScore,
		"summary":         res.Summary,
		"stage_breakdown": res.StageBreakdown,
		"recommendation":  res.Recommendation,
	}
	if res.ReportPath != "" {
		set["report_path"] = res.ReportPath
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) StageAnalytics(ctx context.Context, jobID string) ([]models.StageAnalytics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"job_id": jobID}}},
		{{Key: "$unwind", Value: "$history"}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$history.stage",
			"avg_score":      bson.M{"$avg": "$history.score"},
			"question_count": bson.M{"$sum": 1},
			"scores":         bson.M{"$push": "$history.score"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.StageAnalytics{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) OverallAnalytics(ctx context.Context, jobID string) (*models.OverallAnalytics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"job_id": jobID}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"total_interviews": bson.M{"$sum": 1},
			"avg_score":        bson.M{"$avg": "$average_score"},
			"completion_rate": bson.M{"$avg": bson.M{
				"$cond": bson.A{bson.M{"$ifNull": bson.A{"$ended_at", false}}, 1, 0},
			}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.OverallAnalytics
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
