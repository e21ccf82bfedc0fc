// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
)

// listItem is one audit event with actor and subject names resolved.
type listItem struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Category    string            `json:"category"`
	EventType   string            `json:"event_type"`
	ActorID     string            `json:"actor_id,omitempty"`
	ActorName   string            `json:"actor_name,omitempty"`
	SubjectID   string            `json:"subject_id,omitempty"`
	SubjectName string            `json:"subject_name,omitempty"`
	IP          string            `json:"ip,omitempty"`
	Success     bool              `json:"success"`
	Reason      string            `json:"failure_reason,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

var categories = map[string]bool{
	audit.CategoryAuth:     true,
	audit.CategoryAdmin:    true,
	audit.CategoryFinance:  true,
	audit.CategoryPayments: true,
}
