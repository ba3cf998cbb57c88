package entity

import "time"

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusResolved SessionStatus = "resolved"
)

// Sender identifies which side of the conversation authored a message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderAdmin    Sender = "admin"
)

// Other returns the opposite side of the conversation.
func (s Sender) Other() Sender {
	if s == SenderCustomer {
		return SenderAdmin
	}
	return SenderCustomer
}

func (s Sender) Valid() bool {
	return s == SenderCustomer || s == SenderAdmin
}

// SupportMessage is one utterance in a support session. Everything except the
// Read flag is immutable once appended; Read only ever flips false -> true.
type SupportMessage struct {
	ID        string    `json:"id" firestore:"id"`
	Sender    Sender    `json:"sender" firestore:"sender"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Content   string    `json:"content" firestore:"content"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Read      bool      `json:"read" firestore:"read"`
}

// OrderSnapshot is a denormalized copy of the order captured when the session
// is opened, so the conversation stays displayable even if the order changes.
type OrderSnapshot struct {
	OrderNumber string    `json:"order_number" firestore:"orderNumber"`
	Items       []string  `json:"items" firestore:"items"`
	Total       float64   `json:"total" firestore:"total"`
	PlacedAt    time.Time `json:"placed_at" firestore:"placedAt"`
}

type CustomerSnapshot struct {
	Name  string `json:"name" firestore:"name"`
	Email string `json:"email" firestore:"email"`
	Phone string `json:"phone,omitempty" firestore:"phone,omitempty"`
}

type SupportSession struct {
	ID         string        `json:"id" firestore:"id"`
	OrderID    string        `json:"order_id" firestore:"orderId"`
	CustomerID string        `json:"customer_id" firestore:"customerId"`
	Issue      string        `json:"issue" firestore:"issue"`
	Category   string        `json:"category" firestore:"category"`
	Status     SessionStatus `json:"status" firestore:"status"`

	Messages      []SupportMessage `json:"messages" firestore:"messages"`
	LastMessageAt time.Time        `json:"last_message_at" firestore:"lastMessageAt"`

	OrderDetails    *OrderSnapshot    `json:"order_details,omitempty" firestore:"orderDetails,omitempty"`
	CustomerDetails *CustomerSnapshot `json:"customer_details,omitempty" firestore:"customerDetails,omitempty"`

	ResolvedBy string     `json:"resolved_by,omitempty" firestore:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" firestore:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// LastMessage returns the most recently appended message, or nil when the
// session has no messages yet.
func (s *SupportSession) LastMessage() *SupportMessage {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// UnreadFor counts messages authored by the other party that the given side
// has not read yet. Derived from the message flags so it cannot drift.
func (s *SupportSession) UnreadFor(reader Sender) int {
	count := 0
	for i := range s.Messages {
		if s.Messages[i].Sender == reader.Other() && !s.Messages[i].Read {
			count++
		}
	}
	return count
}
