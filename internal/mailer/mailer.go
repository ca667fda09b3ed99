package mailer

import "embed"

const (
	FromName                = "Prato"
	maxRetries              = 3
	UserWelcomeTemplate     = "user_invitation.tmpl"
	ApplicationDecisionTmpl = "application_decision.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
