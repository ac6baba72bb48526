package out

import (
	"context"
	"time"
)

// RawPayloadArchive stores the full inbound webhook payload before any
// normalization. Lookup is by reply record id once correlation has run.
type RawPayloadArchive interface {
	Save(ctx context.Context, doc *RawPayloadDoc) error
	GetByReplyID(ctx context.Context, replyID int64) (*RawPayloadDoc, error)
}

// RawPayloadDoc is the archived webhook delivery.
type RawPayloadDoc struct {
	ReplyID     int64             `bson:"reply_id"`
	ContentType string            `bson:"content_type"`
	Fields      map[string]string `bson:"fields"`
	Body        string            `bson:"body,omitempty"`
	ReceivedAt  time.Time         `bson:"received_at"`
}
