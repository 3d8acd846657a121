package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// PasswordMail is the data of the "your account was created" mail.
type PasswordMail struct {
	Username string
	Password string
	Provider string
}

const passwordSubject = "Your new account"

var passwordHTML = template.Must(template.New("password.html").Parse(
	`<p>Hello, {{.Username}}!</p>
<p>An account was created for you after signing in with {{.Provider}}.</p>
<p>Login: <b>{{.Username}}</b><br>Password: <b>{{.Password}}</b></p>`))

var passwordText = texttemplate.Must(texttemplate.New("password.txt").Parse(
	`Hello, {{.Username}}!

An account was created for you after signing in with {{.Provider}}.

Login: {{.Username}}
Password: {{.Password}}
`))

// Render returns subject, html and text bodies.
func (m PasswordMail) Render() (subject, html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := passwordHTML.Execute(&hb, m); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	if err := passwordText.Execute(&tb, m); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return passwordSubject, hb.String(), tb.String(), nil
}
