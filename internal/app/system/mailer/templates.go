package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// PromotionData describes a waitlist promotion.
type PromotionData struct {
	SiteName      string
	MemberName    string
	CommitteeName string
	PortalURL     string
}

// BuildPromotionEmail tells a member they moved off a committee waitlist.
func BuildPromotionEmail(to string, d PromotionData) Email {
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", d.MemberName)
	fmt.Fprintf(&text, "A seat opened on the %s committee and you have been moved from the waitlist to the committee.\n", d.CommitteeName)
	if d.PortalURL != "" {
		fmt.Fprintf(&text, "\nSee your committees: %s\n", d.PortalURL)
	}
	fmt.Fprintf(&text, "\n%s\n", d.SiteName)
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("You're in: %s committee", d.CommitteeName),
		TextBody: text.String(),
		HTMLBody: render(promotionHTML, d),
	}
}

// ExpenseDecisionData describes a treasurer's review of an expense.
type ExpenseDecisionData struct {
	SiteName      string
	MemberName    string
	ActivityTitle string
	Amount        string
	Approved      bool
	Reason        string
}

// BuildExpenseDecisionEmail tells a submitter their expense was approved or
// rejected.
func BuildExpenseDecisionEmail(to string, d ExpenseDecisionData) Email {
	decision := "rejected"
	if d.Approved {
		decision = "approved"
	}
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", d.MemberName)
	fmt.Fprintf(&text, "Your expense of %s for %s was %s.\n", d.Amount, d.ActivityTitle, decision)
	if !d.Approved && d.Reason != "" {
		fmt.Fprintf(&text, "Reason: %s\n", d.Reason)
	}
	fmt.Fprintf(&text, "\n%s\n", d.SiteName)
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Expense %s: %s", decision, d.ActivityTitle),
		TextBody: text.String(),
		HTMLBody: render(expenseHTML, struct {
			ExpenseDecisionData
			Decision string
		}{d, decision}),
	}
}

// ReceiptData describes a completed payment.
type ReceiptData struct {
	SiteName    string
	Name        string
	Description string
	Amount      string
	Reference   string
}

// BuildReceiptEmail confirms a dues or event payment.
func BuildReceiptEmail(to string, d ReceiptData) Email {
	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", d.Name)
	fmt.Fprintf(&text, "We received your payment of %s for %s.\n", d.Amount, d.Description)
	if d.Reference != "" {
		fmt.Fprintf(&text, "Reference: %s\n", d.Reference)
	}
	fmt.Fprintf(&text, "\nThank you,\n%s\n", d.SiteName)
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Payment received: %s", d.Description),
		TextBody: text.String(),
		HTMLBody: render(receiptHTML, d),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

const layoutHead = `<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body style="font-family: Arial, sans-serif; color: #1f2937;">`
const layoutFoot = `<p style="color: #6b7280; font-size: 12px;">{{.SiteName}}</p></body></html>`

var (
	promotionHTML = template.Must(template.New("promotion").Parse(layoutHead +
		`<p>Hi {{.MemberName}},</p>
<p>A seat opened on the <strong>{{.CommitteeName}}</strong> committee and you have been moved from the waitlist to the committee.</p>
{{if .PortalURL}}<p><a href="{{.PortalURL}}">See your committees</a></p>{{end}}` + layoutFoot))

	expenseHTML = template.Must(template.New("expense").Parse(layoutHead +
		`<p>Hi {{.MemberName}},</p>
<p>Your expense of <strong>{{.Amount}}</strong> for {{.ActivityTitle}} was <strong>{{.Decision}}</strong>.</p>
{{if and (not .Approved) .Reason}}<p>Reason: {{.Reason}}</p>{{end}}` + layoutFoot))

	receiptHTML = template.Must(template.New("receipt").Parse(layoutHead +
		`<p>Hi {{.Name}},</p>
<p>We received your payment of <strong>{{.Amount}}</strong> for {{.Description}}.</p>
{{if .Reference}}<p>Reference: {{.Reference}}</p>{{end}}
<p>Thank you.</p>` + layoutFoot))
)
