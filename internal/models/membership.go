package models

import "time"

// MembershipStatus is the closed set of states a student's relationship to a
// grouping moves through.
type MembershipStatus string

// Membership states. Accepted and inviter are both full-member states;
// pending is an unconfirmed invite and rejected is a terminal denial.
const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusAccepted MembershipStatus = "accepted"
	MembershipStatusInviter  MembershipStatus = "inviter"
	MembershipStatusRejected MembershipStatus = "rejected"
)

// AcceptedFamily reports whether the status counts as a confirmed member.
func (s MembershipStatus) AcceptedFamily() bool {
	return s == MembershipStatusAccepted || s == MembershipStatusInviter
}

// Valid reports whether the status is one of the known states.
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipStatusPending, MembershipStatusAccepted, MembershipStatusInviter, MembershipStatusRejected:
		return true
	}
	return false
}

// Membership links a student to a grouping with a lifecycle status.
type Membership struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	StudentID  uint             `gorm:"not null;index" json:"student_id"`
	GroupingID uint             `gorm:"not null;index" json:"grouping_id"`
	Status     MembershipStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`

	Student    Student                `gorm:"foreignKey:StudentID" json:"-"`
	Grouping   Grouping               `gorm:"foreignKey:GroupingID" json:"grouping,omitempty"`
	Deductions []GracePeriodDeduction `gorm:"foreignKey:MembershipID" json:"-"`
}

// GracePeriodDeduction records grace credits spent against one membership to
// extend a deadline.
type GracePeriodDeduction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MembershipID uint      `gorm:"not null;index" json:"membership_id"`
	Deduction    int       `gorm:"not null" json:"deduction"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
