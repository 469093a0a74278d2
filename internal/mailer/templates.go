package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

var confirmationText = template.Must(template.New("confirm").Parse(`Hello {{.Nickname}},

You're receiving this e-mail because an account on Novel Stella was registered with {{.Email}}.

To confirm this is correct, go to {{.URL}}

The link expires in {{.Expires}}.

Thank you for using Novel Stella!
`))

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirm").Parse(`<p>Hello {{.Nickname}},</p>
<p>You're receiving this e-mail because an account on Novel Stella was registered with {{.Email}}.</p>
<p><a href="{{.URL}}">Confirm your e-mail address</a></p>
<p>The link expires in {{.Expires}}.</p>
`))

var resetText = template.Must(template.New("reset").Parse(`Hello {{.Nickname}},

You're receiving this e-mail because you or someone else has requested a password reset for your Novel Stella account.
It can be safely ignored if you did not request a password reset. Click the link below to reset your password.

{{.URL}}

The link expires in {{.Expires}}.
`))

var resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(`<p>Hello {{.Nickname}},</p>
<p>You're receiving this e-mail because you or someone else has requested a password reset for your Novel Stella account.</p>
<p><a href="{{.URL}}">Reset your password</a></p>
<p>The link expires in {{.Expires}}.</p>
`))

type templateData struct {
	Nickname string
	Email    string
	URL      string
	Expires  string
}

// Templates собирает письма аккаунтов.
type Templates struct {
	SubjectPrefix string
	FrontendURL   string
}

// ConfirmationURL - страница фронтенда, которая отправляет ключ в verify-email/.
func (t Templates) ConfirmationURL(key string) string {
	return fmt.Sprintf("%s/confirm-email/%s", strings.TrimSuffix(t.FrontendURL, "/"), key)
}

// PasswordResetURL - страница фронтенда со ссылкой сброса пароля.
func (t Templates) PasswordResetURL(uid, token string) string {
	return fmt.Sprintf("%s/password-reset/confirm/%s/%s", strings.TrimSuffix(t.FrontendURL, "/"), uid, token)
}

// EmailConfirmation builds the verification mail for a new account.
func (t Templates) EmailConfirmation(to, nickname, key string, ttl time.Duration) (Message, error) {
	data := templateData{Nickname: nickname, Email: to, URL: t.ConfirmationURL(key), Expires: humanDuration(ttl)}
	return t.render(KindEmailConfirmation, to, "Please Confirm Your E-mail Address", confirmationText, confirmationHTML, data)
}

// PasswordReset builds the password reset mail.
func (t Templates) PasswordReset(to, nickname, uid, token string, ttl time.Duration) (Message, error) {
	data := templateData{Nickname: nickname, Email: to, URL: t.PasswordResetURL(uid, token), Expires: humanDuration(ttl)}
	return t.render(KindPasswordReset, to, "Password Reset E-mail", resetText, resetHTML, data)
}

func (t Templates) render(kind, to, subject string, text *template.Template, html *htmltemplate.Template, data templateData) (Message, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := text.Execute(&textBuf, data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := html.Execute(&htmlBuf, data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        to,
		Subject:   t.SubjectPrefix + subject,
		Text:      textBuf.String(),
		HTML:      htmlBuf.String(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d >= time.Hour && d%time.Hour == 0:
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return d.String()
	}
}
