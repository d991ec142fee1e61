package models

import "time"

// EventType names the domain events the engine emits. An external
// pub/sub layer may relay these; in-process handling stops at logging
// and cache invalidation.
type EventType string

const (
	EventRequestApproved EventType = "RequestApproved"
	EventRequestRejected EventType = "RequestRejected"
)

// DomainEvent describes a request transition for downstream consumers.
type DomainEvent struct {
	Type       EventType `json:"type"`
	RequestID  string    `json:"request_id"`
	StudentID  string    `json:"student_id"`
	ReviewerID string    `json:"reviewer_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
