package mongodb

import (
	"context"
	"time"

	"procure_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionRawPayloads = "raw_payloads"

	// Raw deliveries are only kept long enough to diagnose correlation
	// problems and replay lost replies.
	rawPayloadTTLDays = 30
)

// RawPayloadAdapter implements out.RawPayloadArchive using MongoDB. The
// relational store keeps only the extracted reply; the full provider payload
// lands here.
type RawPayloadAdapter struct {
	collection *mongo.Collection
}

// NewRawPayloadAdapter creates a new raw payload adapter.
func NewRawPayloadAdapter(db *mongo.Database) *RawPayloadAdapter {
	return &RawPayloadAdapter{collection: db.Collection(collectionRawPayloads)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *RawPayloadAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "reply_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type rawPayloadDocument struct {
	ReplyID     int64             `bson:"reply_id"`
	ContentType string            `bson:"content_type,omitempty"`
	Fields      map[string]string `bson:"fields"`
	Body        string            `bson:"body,omitempty"`
	ReceivedAt  time.Time         `bson:"received_at"`
	ExpiresAt   time.Time         `bson:"expires_at"`
}

func (a *RawPayloadAdapter) Save(ctx context.Context, doc *out.RawPayloadDoc) error {
	_, err := a.collection.InsertOne(ctx, &rawPayloadDocument{
		ReplyID:     doc.ReplyID,
		ContentType: doc.ContentType,
		Fields:      doc.Fields,
		Body:        doc.Body,
		ReceivedAt:  doc.ReceivedAt,
		ExpiresAt:   doc.ReceivedAt.AddDate(0, 0, rawPayloadTTLDays),
	})
	return err
}

func (a *RawPayloadAdapter) GetByReplyID(ctx context.Context, replyID int64) (*out.RawPayloadDoc, error) {
	var doc rawPayloadDocument
	err := a.collection.FindOne(ctx, bson.M{"reply_id": replyID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &out.RawPayloadDoc{
		ReplyID:     doc.ReplyID,
		ContentType: doc.ContentType,
		Fields:      doc.Fields,
		Body:        doc.Body,
		ReceivedAt:  doc.ReceivedAt,
	}, nil
}
