package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/insureline/portal/internal/core/domain"
	"github.com/insureline/portal/internal/core/ports"
)

const auditCollection = "session_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

// EnsureIndexes creates the lookup indexes and, when retention is positive,
// a TTL index that expires old events.
func (r *AuditRepository) EnsureIndexes(ctx context.Context, retention time.Duration) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "session_key", Value: 1}}},
	}
	if retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention / time.Second)),
		})
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert persists one session event.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	_, err := r.coll.InsertOne(ctx, auditDocument(event, time.Now()))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func auditDocument(event *domain.AuditEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"kind":        string(event.Kind),
		"session_key": event.SessionKey,
		"at":          event.At.UTC(),
		"recorded_at": recordedAt.UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
	}
	if event.Role.Valid() {
		doc["role"] = event.Role.String()
	}
	if event.Email != "" {
		doc["email"] = event.Email
	}
	if event.Path != "" {
		doc["path"] = event.Path
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	return doc
}
