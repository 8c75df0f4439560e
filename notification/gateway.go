//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_notification.go -package=mocks
package notification

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Invite carries everything an invitation mail needs. The join link embeds
// the participant's invite token, so each mail is unique to its recipient.
type Invite struct {
	Email       string
	JoinLink    string
	Title       string
	CreatorName string
	ScheduledAt time.Time
}

// INotificationGateway delivers meeting invitations. Scheduling never blocks
// on delivery; implementations are called fire-and-forget.
type INotificationGateway interface {
	SendInvite(invite Invite) error
}

// SMTPGateway sends invitations through a plain SMTP relay.
type SMTPGateway struct {
	log  *slog.Logger
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPGateway(log *slog.Logger, host string, port int, from, username, password string) *SMTPGateway {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPGateway{
		log:  log,
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

func (g *SMTPGateway) SendInvite(invite Invite) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", g.from)
	fmt.Fprintf(&b, "To: %s\r\n", invite.Email)
	fmt.Fprintf(&b, "Subject: Invitation: %s\r\n", invite.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "%s invited you to %q on %s.\r\n\r\nJoin here: %s\r\n",
		invite.CreatorName, invite.Title,
		invite.ScheduledAt.Format(time.RFC1123), invite.JoinLink)

	if err := smtp.SendMail(g.addr, g.auth, g.from, []string{invite.Email}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending invite to %s: %w", invite.Email, err)
	}
	g.log.Info("Invitation sent", "email", invite.Email)
	return nil
}

// NoopGateway logs instead of sending. Used when no SMTP relay is
// configured, typically in local development.
type NoopGateway struct {
	log *slog.Logger
}

func NewNoopGateway(log *slog.Logger) *NoopGateway {
	return &NoopGateway{log: log}
}

func (g *NoopGateway) SendInvite(invite Invite) error {
	g.log.Info("Invitation suppressed (no SMTP relay configured)",
		"email", invite.Email, "join_link", invite.JoinLink)
	return nil
}
