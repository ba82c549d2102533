package models

import (
	"time"
)

// ActorKind distinguishes the portals a session belongs to.
type ActorKind string

const (
	ActorAdmin  ActorKind = "admin"
	ActorClient ActorKind = "client"
	ActorStaff  ActorKind = "staff"
)

// ReadNotification is a read marker, unique per (actor_id, actor_kind, notification_id).
type ReadNotification struct {
	Base           `bson:",inline"`
	ActorID        string    `bson:"actor_id" json:"actor_id"`
	ActorKind      ActorKind `bson:"actor_kind" json:"actor_kind"`
	NotificationID string    `bson:"notification_id" json:"notification_id"`
	ReadAt         time.Time `bson:"read_at" json:"read_at"`
}

type NotificationKind string

const (
	NotificationContractAccepted  NotificationKind = "contract_accepted"
	NotificationPaymentReceived   NotificationKind = "payment_received"
	NotificationWorkSubmitted     NotificationKind = "work_submitted"
	NotificationStatusChanged     NotificationKind = "status_changed"
	NotificationTaskAssigned      NotificationKind = "task_assigned"
	NotificationDeadline          NotificationKind = "deadline"
	NotificationTaskApproved      NotificationKind = "task_approved"
	NotificationRevisionRequested NotificationKind = "revision_requested"
)

// Notification is derived from ledger events; it is never stored.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Read      bool             `json:"read"`
}

type NotificationFeed struct {
	Items       []Notification `json:"notifications"`
	UnreadCount int            `json:"unreadCount"`
}
