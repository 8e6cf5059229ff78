package mail

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"
	"time"
)

const verificationSubject = "Verify your email"

var verificationBody = template.Must(template.New("verification").Parse(
	`Hi{{if .Name}} {{.Name}}{{end}},

Please confirm your email address by opening the link below:

{{.Link}}

The link expires in {{.ValidFor}}. If you did not create an account, ignore this message.
`))

// VerificationLink builds <frontendURL>/verify-email?token=<token>.
func VerificationLink(frontendURL, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

// VerificationMessage renders the email sent after registration.
func VerificationMessage(to string, name *string, link string, validFor time.Duration) (Message, error) {
	data := struct {
		Name     string
		Link     string
		ValidFor string
	}{Link: link, ValidFor: humanDuration(validFor)}
	if name != nil {
		data.Name = *name
	}

	var b strings.Builder
	if err := verificationBody.Execute(&b, data); err != nil {
		return Message{}, fmt.Errorf("render verification email: %w", err)
	}
	return Message{To: to, Subject: verificationSubject, Body: b.String()}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
