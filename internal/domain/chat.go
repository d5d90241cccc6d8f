package domain

import "time"

// ChatMessage is append-only; it feeds the reputation ledger exactly once
// at creation and is never mutated afterwards.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	AuthorID  string    `json:"authorId"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	Toxic     bool      `json:"toxic"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification is append-only except for the read flag.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuditEntry is a record in the append-only staff audit sink.
type AuditEntry struct {
	ID       string    `json:"id"`
	ActorID  string    `json:"actorId"`
	Action   string    `json:"action"`
	TargetID string    `json:"targetId,omitempty"`
	Details  string    `json:"details"`
	At       time.Time `json:"at"`
}
