// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles. Role changes are restricted to the president.
const (
	RoleMember    = "member"
	RoleBoard     = "board"
	RoleTreasurer = "treasurer"
	RolePresident = "president"
)

// Member statuses.
const (
	MemberPending  = "pending"
	MemberActive   = "active"
	MemberInactive = "inactive"
	MemberAlumni   = "alumni"
)

// Sign-in methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// Roles and MemberStatuses list the valid values in rank order.
var (
	Roles          = []string{RoleMember, RoleBoard, RoleTreasurer, RolePresident}
	MemberStatuses = []string{MemberPending, MemberActive, MemberInactive, MemberAlumni}
)

// Member is a club member account. Officers are members with an elevated role.
type Member struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // folded, unique
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method" json:"auth_method"` // password | google
	GoogleID     string             `bson:"google_id,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"`
	JoinedAt     *time.Time         `bson:"joined_at,omitempty" json:"joined_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the member is in good standing.
func (m Member) IsActive() bool { return m.Status == MemberActive }

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	switch r {
	case RoleMember, RoleBoard, RoleTreasurer, RolePresident:
		return true
	}
	return false
}

// ValidMemberStatus reports whether s is a known member status.
func ValidMemberStatus(s string) bool {
	switch s {
	case MemberPending, MemberActive, MemberInactive, MemberAlumni:
		return true
	}
	return false
}
