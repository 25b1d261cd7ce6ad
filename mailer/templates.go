// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/aurorasocial/server/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{"hours": hours}).ParseFS(templateFS, "templates/*.html"))

// MagicLinkData fills the login email.
type MagicLinkData struct {
	Link      string
	ExpiresIn time.Duration
}

// InvitationData fills the invitation email.
type InvitationData struct {
	InviterName string
	TenantName  string
	Role        string
	Link        string
	ExpiresIn   time.Duration
}

func (d InvitationData) RoleLabel() string {
	if d.Role == models.RoleGestor {
		return "Gestor(a)"
	}
	return "Técnico(a)"
}

// MagicLinkMessage renders the login email for to.
func MagicLinkMessage(to string, d MagicLinkData) (Message, error) {
	html, err := render("magic_link.html", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Seu link de acesso ao AuroraSocial",
		HTML:    html,
		Text: fmt.Sprintf("Acesse o AuroraSocial pelo link abaixo (válido por %s):\n\n%s\n\nSe você não solicitou este acesso, ignore este email.",
			hours(d.ExpiresIn), d.Link),
	}, nil
}

// InvitationMessage renders the invitation email for to.
func InvitationMessage(to string, d InvitationData) (Message, error) {
	html, err := render("invitation.html", d)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Convite para o AuroraSocial - %s", d.TenantName),
		HTML:    html,
		Text: fmt.Sprintf("%s convidou você para acessar o AuroraSocial de %s como %s.\n\nAceite o convite (válido por %s):\n\n%s",
			d.InviterName, d.TenantName, d.RoleLabel(), hours(d.ExpiresIn), d.Link),
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// hours formats a TTL the way the emails phrase it.
func hours(d time.Duration) string {
	h := int(d.Round(time.Hour).Hours())
	switch {
	case h >= 48 && h%24 == 0:
		return fmt.Sprintf("%d dias", h/24)
	case h == 1:
		return "1 hora"
	default:
		return fmt.Sprintf("%d horas", h)
	}
}
