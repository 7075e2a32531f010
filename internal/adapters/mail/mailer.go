// Package mail renders and dispatches transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/SscSPs/storefront_app/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_app/internal/core/ports/services"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// sender delivers one rendered message.
type sender interface {
	send(ctx context.Context, to, subject, htmlBody string) error
}

// Links holds the public base URLs mail links point at.
type Links struct {
	ServerURL string
	ClientURL string
}

// templateMailer renders the message templates and hands them to a sender.
type templateMailer struct {
	links  Links
	sender sender
}

var _ portssvc.Mailer = (*templateMailer)(nil)

type templateData struct {
	Link   string
	Source string
}

func (m *templateMailer) SendEmailConfirmation(ctx context.Context, email, token string) error {
	link := m.serverLink("/api/auth/email-confirmation/" + url.PathEscape(token))
	return m.render(ctx, email, "Confirm your email", "confirm_email.html", templateData{Link: link})
}

func (m *templateMailer) SendPasswordChangeEmail(ctx context.Context, email, token string) error {
	link := m.serverLink("/api/auth/reset-password/" + url.PathEscape(token))
	return m.render(ctx, email, "Reset your password", "reset_password.html", templateData{Link: link})
}

func (m *templateMailer) SendNoUserFoundEmail(ctx context.Context, email string) error {
	return m.render(ctx, email, "Password reset request", "no_user_found.html", templateData{Link: m.clientLink("/c/register")})
}

func (m *templateMailer) SendUseProviderEmail(ctx context.Context, email string, source domain.Source) error {
	data := templateData{Link: m.clientLink("/c/login"), Source: string(source)}
	return m.render(ctx, email, "Password reset request", "use_provider.html", data)
}

func (m *templateMailer) render(ctx context.Context, to, subject, name string, data templateData) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return m.sender.send(ctx, to, subject, body.String())
}

func (m *templateMailer) serverLink(path string) string {
	return strings.TrimRight(m.links.ServerURL, "/") + path
}

func (m *templateMailer) clientLink(path string) string {
	return strings.TrimRight(m.links.ClientURL, "/") + path
}
