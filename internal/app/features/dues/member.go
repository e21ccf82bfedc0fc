// internal/app/features/dues/member.go
package dues

import (
	"context"
	"net/http"

	"github.com/dalemusser/rotaractportal/internal/app/store/audit"
	checkoutstore "github.com/dalemusser/rotaractportal/internal/app/store/checkouts"
	duescyclestore "github.com/dalemusser/rotaractportal/internal/app/store/duescycles"
	memberduesstore "github.com/dalemusser/rotaractportal/internal/app/store/memberdues"
	"github.com/dalemusser/rotaractportal/internal/app/system/apiresp"
	"github.com/dalemusser/rotaractportal/internal/app/system/auth"
	"github.com/dalemusser/rotaractportal/internal/app/system/authz"
	"github.com/dalemusser/rotaractportal/internal/app/system/inputval"
	"github.com/dalemusser/rotaractportal/internal/app/system/payments"
	"github.com/dalemusser/rotaractportal/internal/app/system/timeouts"
	"github.com/dalemusser/rotaractportal/internal/domain/errs"
	"github.com/dalemusser/rotaractportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errCannotPay = errs.Forbidden("inactive and alumni members cannot pay dues online")

// ServeCycles lists cycles open for payment. Officers may pass all=1 to
// include closed ones.
func (h *Handler) ServeCycles(w http.ResponseWriter, r *http.Request) {
	activeOnly := !(authz.IsOfficer(r) && r.URL.Query().Get("all") == "1")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := duescyclestore.New(h.DB).List(ctx, activeOnly)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list dues cycles failed", err)
		return
	}
	apiresp.OK(w, map[string]any{"cycles": list})
}

// ServeMine reports the caller's status for every open cycle plus any
// older cycle they have a record for.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	records, err := memberduesstore.New(h.DB).ListForMember(ctx, uid)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list member dues failed", err)
		return
	}
	byCycle := make(map[primitive.ObjectID]models.MemberDues, len(records))
	for _, d := range records {
		byCycle[d.CycleID] = d
	}

	cycles, err := duescyclestore.New(h.DB).List(ctx, false)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list dues cycles failed", err)
		return
	}
	out := []cycleStatus{}
	for _, c := range cycles {
		d, has := byCycle[c.ID]
		if !c.Active && !has {
			continue
		}
		st := cycleStatus{Cycle: c, Status: models.PaymentUnpaid}
		if has {
			st.Status, st.PaidAt, st.Method = d.Status, d.PaidAt, d.PaymentMethod
		}
		out = append(out, st)
	}
	apiresp.OK(w, map[string]any{"dues": out})
}

// HandleCheckout starts a Stripe Checkout Session for one cycle's dues and
// marks the member's dues pending.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Unauthorized(w)
		return
	}
	if u.Status == models.MemberInactive || u.Status == models.MemberAlumni {
		h.ErrLog.Fail(w, r, "dues checkout", errCannotPay)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apiresp.Unauthorized(w)
		return
	}
	var in checkoutInput
	if err := apiresp.Decode(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode dues checkout", err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apiresp.BadRequest(w, res.First())
		return
	}
	cycleID, _ := primitive.ObjectIDFromHex(in.CycleID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cycle, err := duescyclestore.New(h.DB).GetByID(ctx, cycleID)
	if err != nil {
		h.ErrLog.Fail(w, r, "get dues cycle failed", err)
		return
	}
	if !cycle.Active {
		h.ErrLog.Fail(w, r, "dues checkout", duescyclestore.ErrInactive)
		return
	}
	dues := memberduesstore.New(h.DB)
	cur, err := dues.Get(ctx, memberID, cycleID)
	if err != nil && errs.KindOf(err) != errs.KindNotFound {
		h.ErrLog.ServerError(w, r, "get member dues failed", err)
		return
	}
	if err == nil && cur.Status == models.PaymentPaid {
		h.ErrLog.Fail(w, r, "dues checkout", memberduesstore.ErrAlreadyPaid)
		return
	}
	if h.Gateway == nil {
		apiresp.Error(w, http.StatusServiceUnavailable, "online payments are not available")
		return
	}

	// A checkout already in flight is handed back rather than replaced.
	if err == nil && cur.Status == models.PaymentPending && cur.CheckoutSessionID != "" {
		prev, gerr := h.Gateway.GetCheckout(ctx, cur.CheckoutSessionID)
		if gerr == nil && prev.Status == payments.SessionOpen && prev.URL != "" {
			apiresp.OK(w, map[string]any{"url": prev.URL, "session_id": prev.ID})
			return
		}
		if gerr != nil {
			h.Log.Warn("load pending dues checkout failed", zap.Error(gerr), zap.String("session_id", cur.CheckoutSessionID))
		}
	}

	sess, err := h.Gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		Kind:        models.PaymentForDues,
		RelatedID:   cycle.ID.Hex(),
		MemberID:    memberID.Hex(),
		Email:       u.Email,
		Description: "Membership dues " + cycle.Name,
		UnitAmount:  cycle.Amount,
		Quantity:    1,
		SuccessURL:  h.BaseURL + "/dues?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   h.BaseURL + "/dues?checkout=cancelled",
	})
	if err != nil {
		h.ErrLog.ServerError(w, r, "create checkout session failed", err)
		return
	}
	if err := dues.MarkPending(ctx, memberID, cycleID, cycle.Amount, sess.ID); err != nil {
		h.ErrLog.Fail(w, r, "mark dues pending failed", err)
		return
	}
	if _, err := checkoutstore.New(h.DB).Create(ctx, models.Checkout{
		SessionID:   sess.ID,
		Kind:        models.PaymentForDues,
		RelatedID:   cycle.ID,
		MemberID:    &memberID,
		Email:       u.Email,
		AmountTotal: cycle.Amount,
	}); err != nil {
		h.Log.Error("record checkout failed", zap.Error(err), zap.String("session_id", sess.ID))
	}
	h.Metrics.Checkout(models.PaymentForDues)
	h.AuditLog.Checkout(ctx, audit.EventCheckoutCreated, sess.ID, models.PaymentForDues, "api", cycle.Amount)

	apiresp.Created(w, map[string]any{"url": sess.URL, "session_id": sess.ID})
}
