package mongo

import (
	"context"
	"errors"

	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type JobRepository interface {
	GetByID(ctx context.Context, jobID string) (*models.JobProfile, error)
	MarkInterviewDone(ctx context.Context, jobID, resumeID, sessionID string) error
	ClearInterview(ctx context.Context, jobID, resumeID string) error
}

type jobRepo struct {
	col *mongo.Collection
}

func NewJobRepo(db *mongo.Database) JobRepository {
	return &jobRepo{col: db.Collection("job_profiles")}
}

func (r *jobRepo) GetByID(ctx context.Context, jobID string) (*models.JobProfile, error) {
	oid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var j models.JobProfile
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) MarkInterviewDone(ctx context.Context, jobID, resumeID, sessionID string) error {
	oid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return utils.ErrNotFound
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "scoredResumes.resumeId": resumeID},
		bson.M{"$set": bson.M{
			"scoredResumes.$.interviewDone": true,
			"scoredResumes.$.sessionId":     sessionID,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *jobRepo) ClearInterview(ctx context.Context, jobID, resumeID string) error {
	oid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return utils.ErrNotFound
	}
	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "scoredResumes.resumeId": resumeID},
		bson.M{"$unset": bson.M{
			"scoredResumes.$.interviewDone": "",
			"scoredResumes.$.sessionId":     "",
		}},
	)
	return err
}
