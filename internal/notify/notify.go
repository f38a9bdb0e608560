// Package notify renders and delivers transactional email.
package notify

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

type Template string

const (
	TemplateOTP           Template = "otp"
	TemplateWelcome       Template = "welcome"
	TemplatePasswordReset Template = "password_reset"
	TemplateReceipt       Template = "receipt"
)

// Message is what callers hand to a Dispatcher. Data keys are template fields;
// SiteName is filled in at render time when missing.
type Message struct {
	To       string            `json:"to"`
	Template Template          `json:"template"`
	Data     map[string]string `json:"data"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

type templateSet struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[Template]templateSet{
	TemplateOTP: parse("otp",
		`Verify your {{.SiteName}} account`,
		`Hello {{.Username}},

Your {{.SiteName}} verification code is {{.Code}}.
It expires in 15 minutes. If you did not sign up, ignore this email.
`),
	TemplateWelcome: parse("welcome",
		`Welcome to {{.SiteName}}`,
		`Hello {{.Username}},

Your email is verified and your account is active. You can now log in and start booking.
`),
	TemplatePasswordReset: parse("password_reset",
		`Reset your {{.SiteName}} password`,
		`Hello {{.Username}},

Use the link below to choose a new password. It is valid for one hour.

{{.Link}}

If you did not ask for a reset, you can ignore this email.
`),
	TemplateReceipt: parse("receipt",
		`{{.SiteName}} receipt {{.ReceiptNumber}}`,
		`Hello {{.Username}},

Thanks for your payment. Receipt {{.ReceiptNumber}}
Place: {{.PlaceName}} (slot {{.SlotCode}})
From {{.StartTime}} to {{.EndTime}}
Total paid: {{.Total}}
`),
}

func parse(name, subject, body string) templateSet {
	return templateSet{
		subject: template.Must(template.New(name + "_subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New(name).Option("missingkey=zero").Parse(body)),
	}
}

// Render produces the subject line and plain-text body for msg.
func Render(siteName string, msg Message) (string, string, error) {
	set, ok := templates[msg.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", msg.Template)
	}
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	if data["SiteName"] == "" {
		data["SiteName"] = siteName
	}
	var subject, body strings.Builder
	if err := set.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", msg.Template, err)
	}
	if err := set.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", msg.Template, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}
