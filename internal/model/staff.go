package model

import "time"

const (
	StaffRoleAdmin   = "admin"
	StaffRoleOfficer = "officer"
)

// Staff is an admissions-office account. There is no open registration: the
// first account is bootstrapped as admin, every later one is created by an
// admin. Deactivated accounts keep their rows but cannot log in or use the
// document API.
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:officer" json:"role"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Staff) TableName() string { return "staff_accounts" }

// ValidStaffRole reports whether role is one of the two account roles.
func ValidStaffRole(role string) bool {
	return role == StaffRoleAdmin || role == StaffRoleOfficer
}
