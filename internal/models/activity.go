package models

import "time"

// SubjectType names the kind of entity an activity entry refers to.
type SubjectType string

const (
	SubjectMember SubjectType = "member"
	SubjectRole   SubjectType = "role"
)

// Action is the human readable verb stored on an activity entry.
type Action string

const (
	ActionMemberCreated Action = "Created Member"
	ActionMemberUpdated Action = "Updated Member"
	ActionMemberDeleted Action = "Deleted Member"
	ActionRoleCreated   Action = "Created Role"
	ActionRoleUpdated   Action = "Updated Role"
	ActionRoleDeleted   Action = "Deleted Role"
)

// ActivityLog is an append-only audit record. Rows are never updated or deleted.
type ActivityLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"column:user_id;not null;index" json:"user_id"`
	User        *User       `gorm:"foreignKey:UserID" json:"-"`
	SubjectType SubjectType `gorm:"column:subject_type;not null;index:idx_activity_subject" json:"subject_type"`
	SubjectID   uint        `gorm:"column:subject_id;not null;index:idx_activity_subject" json:"subject_id"`
	Action      Action      `gorm:"column:action;not null" json:"action"`
	Timestamp   time.Time   `gorm:"column:timestamp;not null;index" json:"timestamp"`
}

// TableName sets the table name for GORM
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ActivityView is an activity entry joined with the acting user's name.
type ActivityView struct {
	ID          uint        `json:"id"`
	Timestamp   time.Time   `json:"timestamp"`
	Action      Action      `json:"action"`
	SubjectType SubjectType `json:"subject_type"`
	SubjectID   uint        `json:"subject_id"`
	UserID      uint        `json:"user_id"`
	PerformedBy string      `json:"performedBy"`
}
