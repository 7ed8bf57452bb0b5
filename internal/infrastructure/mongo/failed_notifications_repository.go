package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationRepository は送信に失敗した通知を後から再送できるよう記録する。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

// Record は失敗した通知の宛先・本文・理由を 1 件挿入する。
func (r *FailedNotificationRepository) Record(ctx context.Context, surveyID, destination, payload, reason string) error {
	doc := FailedNotificationDocument{
		ID:          primitive.NewObjectID(),
		SurveyID:    surveyID,
		Destination: destination,
		Payload:     payload,
		Reason:      reason,
		FailedAt:    time.Now().UTC(),
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}
