package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"staffingauth/internal/entity"
)

type mailMessage struct {
	Subject string
	HTML    string
}

type mailData struct {
	FirstName string
	Link      string
	ValidFor  string
}

var verifyEmailTemplate = template.Must(template.New("verify").Parse(
	`<p>Hi{{if .FirstName}} {{.FirstName}}{{end}},</p>` +
		`<p>Thanks for signing up. Confirm your email address to activate your account:</p>` +
		`<p><a href="{{.Link}}">Verify email</a></p>` +
		`<p>This link is valid for {{.ValidFor}} and can be used once.</p>`))

var resetPasswordTemplate = template.Must(template.New("reset").Parse(
	`<p>Hi{{if .FirstName}} {{.FirstName}}{{end}},</p>` +
		`<p>We received a request to reset your password:</p>` +
		`<p><a href="{{.Link}}">Choose a new password</a></p>` +
		`<p>This link is valid for {{.ValidFor}} and can be used once. If you did not ask for it, ignore this email.</p>`))

func renderMessage(purpose entity.TokenPurpose, link string, firstName string, validFor time.Duration) (mailMessage, error) {
	tmpl := verifyEmailTemplate
	subject := "Verify your email"
	if purpose == entity.PasswordReset {
		tmpl = resetPasswordTemplate
		subject = "Reset your password"
	}
	var body bytes.Buffer
	err := tmpl.Execute(&body, mailData{
		FirstName: firstName,
		Link:      link,
		ValidFor:  humanDuration(validFor),
	})
	if err != nil {
		return mailMessage{}, fmt.Errorf("render %s email: %w", purpose, err)
	}
	return mailMessage{Subject: subject, HTML: body.String()}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
