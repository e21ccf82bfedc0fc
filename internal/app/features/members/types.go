// internal/app/features/members/types.go
package members

import (
	"time"

	"github.com/dalemusser/rotaractportal/internal/domain/models"
)

// memberRow is the directory entry officers see.
type memberRow struct {
	ID         string     `json:"id"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	AuthMethod string     `json:"auth_method"`
	JoinedAt   *time.Time `json:"joined_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toRow(m models.Member) memberRow {
	return memberRow{
		ID:         m.ID.Hex(),
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		Role:       m.Role,
		Status:     m.Status,
		AuthMethod: m.AuthMethod,
		JoinedAt:   m.JoinedAt,
		CreatedAt:  m.CreatedAt,
	}
}

type roleInput struct {
	Role string `json:"role" validate:"required,role"`
}

type statusInput struct {
	Status string `json:"status" validate:"required,memberstatus"`
}
