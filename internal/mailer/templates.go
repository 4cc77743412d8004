package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const codeHTML = `<div style="font-family:Arial,sans-serif;max-width:480px">
<h2>{{.Brand}}</h2>
<p>Hello {{.Name}},</p>
<p>{{.Intro}}</p>
<p style="font-size:28px;letter-spacing:6px"><strong>{{.Code}}</strong></p>
<p>If you did not request this, you can ignore this email.</p>
<p style="color:#888">&copy; {{.Year}} {{.Brand}}</p>
</div>`

const codeText = `Hello {{.Name}},

{{.Intro}}

    {{.Code}}

If you did not request this, you can ignore this email.

(c) {{.Year}} {{.Brand}}
`

const contactHTML = `<div style="font-family:Arial,sans-serif">
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
<p>{{.Message}}</p>
</div>`

const contactText = `From: {{.Name}} <{{.Email}}>

{{.Message}}
`

var (
	codeHTMLTmpl    = htmltemplate.Must(htmltemplate.New("code").Parse(codeHTML))
	codeTextTmpl    = texttemplate.Must(texttemplate.New("code").Parse(codeText))
	contactHTMLTmpl = htmltemplate.Must(htmltemplate.New("contact").Parse(contactHTML))
	contactTextTmpl = texttemplate.Must(texttemplate.New("contact").Parse(contactText))
)

// Composer builds the application's messages.
type Composer struct {
	Brand   string
	From    string
	Support string
	Now     func() time.Time
}

type codeData struct {
	Brand, Name, Intro, Code string
	Year                     int
}

func render(html *htmltemplate.Template, text *texttemplate.Template, data any) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	return h.String(), t.String(), nil
}

func (c Composer) year() int {
	if c.Now == nil {
		return time.Now().Year()
	}
	return c.Now().Year()
}

func (c Composer) codeMessage(to, name, code, subject, intro string) (Message, error) {
	data := codeData{Brand: c.Brand, Name: name, Intro: intro, Code: code, Year: c.year()}
	html, text, err := render(codeHTMLTmpl, codeTextTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{From: c.From, To: []string{to}, Subject: subject, Text: text, HTML: html}, nil
}

// Verification carries an account activation code.
func (c Composer) Verification(to, name, code string) (Message, error) {
	return c.codeMessage(to, name, code,
		"Verification code - "+c.Brand,
		"Use this code to activate your account:")
}

// PasswordReset carries a password recovery code.
func (c Composer) PasswordReset(to, name, code string) (Message, error) {
	return c.codeMessage(to, name, code,
		"Password recovery - "+c.Brand,
		"Use this code to choose a new password:")
}

// Contact relays a contact-form submission to the support address.
func (c Composer) Contact(name, email, message string) (Message, error) {
	data := struct{ Name, Email, Message string }{name, email, strings.TrimSpace(message)}
	html, text, err := render(contactHTMLTmpl, contactTextTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		From:    c.From,
		To:      []string{c.Support},
		Subject: "Contact form: " + name,
		Text:    text,
		HTML:    html,
	}, nil
}
