package models

import "time"

// DateOfBirthLayout is the wire and storage format of Member.DateOfBirth.
const DateOfBirthLayout = "2006-01-02"

// Member is a managed membership record. Members are soft-deleted.
type Member struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	Email          string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	DateOfBirth    string     `gorm:"column:date_of_birth;not null" json:"date_of_birth"`
	RoleID         uint       `gorm:"column:role_id;not null;index" json:"role_id"`
	Role           *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	ProfilePicture string     `gorm:"column:profile_picture" json:"profile_picture,omitempty"`
	CreatedBy      uint       `gorm:"column:created_by;not null;index" json:"created_by"`
	Creator        *User      `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`
	DeletedAt      *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for GORM
func (Member) TableName() string {
	return "members"
}
