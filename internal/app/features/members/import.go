// internal/app/features/members/import.go
package members

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/rotaractportal/internal/app/policy/memberpolicy"
	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/csvutil"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleImport creates pending members from a CSV roster posted as the
// request body. The whole file is rejected if any line is invalid; emails
// that already belong to a member are skipped.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := memberpolicy.CanListMembers(r); err != nil {
		h.ErrLog.Fail(w, r, "import members", err)
		return
	}
	_, _, uid, _ := authz.UserCtx(r)

	body := http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	res, err := csvutil.ParseRoster(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apiresp.Error(w, http.StatusRequestEntityTooLarge, "roster file is too large")
			return
		}
		apiresp.BadRequest(w, err.Error())
		return
	}
	if res.HasErrors() {
		apiresp.JSON(w, http.StatusBadRequest, map[string]any{
			"error": "roster has invalid lines",
			"lines": res.Errors,
		})
		return
	}
	if len(res.Rows) == 0 {
		apiresp.BadRequest(w, "roster is empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	store := memberstore.New(h.DB)
	created := 0
	skipped := []string{}
	for _, row := range res.Rows {
		_, err := store.Create(ctx, models.Member{
			FullName: row.FullName,
			Email:    row.Email,
			Phone:    row.Phone,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, memberstore.ErrDuplicateEmail):
			skipped = append(skipped, row.Email)
		default:
			h.Log.Error("roster import stopped", zap.Int("line", row.Line), zap.Int("created", created), zap.Error(err))
			h.ErrLog.ServerError(w, r, "import members failed", err)
			return
		}
	}

	h.AuditLog.Admin(ctx, r, audit.EventMembersImported, uid, primitive.NilObjectID, map[string]string{
		"created": strconv.Itoa(created),
		"skipped": strconv.Itoa(len(skipped)),
	})
	apiresp.OK(w, map[string]any{"created": created, "skipped": skipped})
}
