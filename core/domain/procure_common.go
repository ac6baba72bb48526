package domain

// Kind classifies a conversation or message as a quotation request or a
// price/terms negotiation.
type Kind string

const (
	KindRFx         Kind = "rfx"
	KindNegotiation Kind = "negotiation"
)

// IsValid reports whether k is one of the two known kinds.
func (k Kind) IsValid() bool {
	return k == KindRFx || k == KindNegotiation
}

// Sender identifies which side of the conversation authored a message.
type Sender string

const (
	SenderYou    Sender = "you"
	SenderVendor Sender = "vendor"
)

// ThreadStatus is the lifecycle state of a vendor conversation.
type ThreadStatus string

const (
	StatusAwaitingReply ThreadStatus = "awaiting-reply"
	StatusResponded     ThreadStatus = "responded"
	StatusNeedsFollowUp ThreadStatus = "needs-follow-up"
	StatusNegotiating   ThreadStatus = "negotiating"
	StatusCompleted     ThreadStatus = "completed"
)

// IsValid reports whether s is a known thread status.
func (s ThreadStatus) IsValid() bool {
	switch s {
	case StatusAwaitingReply, StatusResponded, StatusNeedsFollowUp, StatusNegotiating, StatusCompleted:
		return true
	}
	return false
}
