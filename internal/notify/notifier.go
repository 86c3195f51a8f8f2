package notify

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"campus/internal/metrics"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "contact_confirmation"}}<p>Hi {{.Name}},</p><p>Thanks for reaching out. We received your message{{if .Subject}} about "{{.Subject}}"{{end}} and will reply soon.</p>{{end}}
{{define "contact_admin"}}<p>New contact from {{.Name}} &lt;{{.Email}}&gt;</p><p><strong>{{.Subject}}</strong></p><p>{{.Message}}</p>{{end}}
{{define "enrollment_received"}}<p>Hi {{.Name}},</p><p>Your bootcamp application was received and is pending review.</p>{{end}}
{{define "enrollment_status"}}<p>Hi {{.Name}},</p><p>Your bootcamp application status is now <strong>{{.Status}}</strong>.</p>{{if .Course}}<p>Assigned course: {{.Course}}</p>{{end}}{{end}}
{{define "comment_approved"}}<p>Hi {{.Name}},</p><p>Your comment on "{{.Title}}" has been approved and is now visible.</p>{{end}}
{{define "sponsor_received"}}<p>Hi {{.Name}},</p><p>Thanks for applying to sponsor us on behalf of {{.Company}}. We will be in touch.</p>{{end}}
{{define "sponsor_status"}}<p>Hi {{.Name}},</p><p>The sponsorship application for {{.Company}} is now <strong>{{.Status}}</strong>.</p>{{end}}
`))

// Notifier composes domain e-mails. Every method is best effort: failures are logged,
// counted and swallowed so the caller's mutation stands.
type Notifier struct {
	sender     Sender
	adminEmail string
	log        zerolog.Logger
}

func NewNotifier(sender Sender, adminEmail string, log zerolog.Logger) *Notifier {
	return &Notifier{sender: sender, adminEmail: adminEmail, log: log}
}

func (n *Notifier) ContactReceived(ctx context.Context, name, email, subject, message string) {
	data := map[string]string{"Name": name, "Email": email, "Subject": subject, "Message": message}
	n.send(ctx, "contact_confirmation", email, "We received your message", data)
	if n.adminEmail != "" {
		n.send(ctx, "contact_admin", n.adminEmail, "New contact: "+subject, data)
	}
}

func (n *Notifier) EnrollmentReceived(ctx context.Context, name, email string) {
	n.send(ctx, "enrollment_received", email, "Bootcamp application received", map[string]string{"Name": name})
}

func (n *Notifier) EnrollmentStatusChanged(ctx context.Context, name, email, status, course string) {
	data := map[string]string{"Name": name, "Status": status, "Course": course}
	n.send(ctx, "enrollment_status", email, "Bootcamp application "+strings.ToLower(status), data)
}

func (n *Notifier) CommentApproved(ctx context.Context, name, email, postTitle string) {
	data := map[string]string{"Name": name, "Title": postTitle}
	n.send(ctx, "comment_approved", email, "Your comment was approved", data)
}

func (n *Notifier) SponsorReceived(ctx context.Context, company, contactName, email string) {
	data := map[string]string{"Name": contactName, "Company": company}
	n.send(ctx, "sponsor_received", email, "Sponsorship application received", data)
}

func (n *Notifier) SponsorStatusChanged(ctx context.Context, company, contactName, email, status string) {
	data := map[string]string{"Name": contactName, "Company": company, "Status": status}
	n.send(ctx, "sponsor_status", email, "Sponsorship application "+strings.ToLower(status), data)
}

func (n *Notifier) send(ctx context.Context, kind, to, subject string, data any) {
	if n == nil || n.sender == nil || to == "" {
		return
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, kind, data); err != nil {
		n.fail(kind, to, err)
		return
	}
	if err := n.sender.Send(ctx, Message{To: to, Subject: subject, HTML: buf.String()}); err != nil {
		n.fail(kind, to, err)
	}
}

func (n *Notifier) fail(kind, to string, err error) {
	metrics.NotificationsFailed.WithLabelValues(kind).Inc()
	n.log.Warn().Err(err).Str("kind", kind).Str("to", to).Msg("notification failed")
}
