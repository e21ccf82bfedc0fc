// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	memberstore "github.com/dalemusser/rotaractportal/internal/app/store/members"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /api/admin/audit with optional category, event_type,
// member, start_date, end_date (YYYY-MM-DD) and page filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	if category != "" && !categories[category] {
		apiresp.BadRequest(w, "unknown category")
		return
	}
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if raw := q.Get("member"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			apiresp.BadRequest(w, "invalid member id")
			return
		}
		filter.SubjectID = &id
	}
	if raw := q.Get("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apiresp.BadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apiresp.BadRequest(w, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		end := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	store := audit.New(h.DB)
	events, err := store.Query(ctx, filter)
	if err != nil {
		h.ErrLog.ServerError(w, r, "query audit events failed", err)
		return
	}
	total, err := store.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.ServerError(w, r, "count audit events failed", err)
		return
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, p := range []*primitive.ObjectID{e.ActorID, e.SubjectID} {
			if p == nil {
				continue
			}
			if _, ok := seen[*p]; !ok {
				seen[*p] = struct{}{}
				ids = append(ids, *p)
			}
		}
	}
	names, err := memberstore.New(h.DB).Contacts(ctx, ids)
	if err != nil {
		h.Log.Warn("resolve audit member names failed", zap.Error(err))
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID].Name
		}
		if e.SubjectID != nil {
			item.SubjectID = e.SubjectID.Hex()
			item.SubjectName = names[*e.SubjectID].Name
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	apiresp.OK(w, map[string]any{
		"events":      items,
		"total":       total,
		"page":        page,
		"total_pages": totalPages,
	})
}
