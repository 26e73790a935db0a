package models

import "time"

// Role groups members and users. Roles are soft-deleted: DeletedAt is set and
// the row stays for referential and audit history.
type Role struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	CreatedBy   *uint      `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for GORM
func (Role) TableName() string {
	return "roles"
}
