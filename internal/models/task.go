package models

import (
	"time"

	"github.com/mpiyush15/pixels-official-sub001/internal/utils"
)

type TaskStatus string

const (
	TaskStatusTodo              TaskStatus = "todo"
	TaskStatusInProgress        TaskStatus = "in-progress"
	TaskStatusReview            TaskStatus = "review"
	TaskStatusRevisionRequested TaskStatus = "revision-requested"
	TaskStatusApproved          TaskStatus = "approved"
)

// Task is a unit of work assigned to a staff member.
type Task struct {
	Base                `bson:",inline"`
	AssigneeID          string       `bson:"assignee_id" json:"assignee_id"`
	ProjectID           *utils.SixID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Title               string       `bson:"title" json:"title"`
	Status              TaskStatus   `bson:"status" json:"status"`
	DueDate             *time.Time   `bson:"due_date,omitempty" json:"due_date,omitempty"`
	AssignedAt          time.Time    `bson:"assigned_at" json:"assigned_at"`
	ApprovedAt          *time.Time   `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RevisionRequestedAt *time.Time   `bson:"revision_requested_at,omitempty" json:"revision_requested_at,omitempty"`
}
