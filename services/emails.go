package services

import (
	"bytes"
	"html/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		{{template "body" .}}
		<p style="color: #999; font-size: 12px; margin-top: 24px;">{{.AppName}}</p>
	</div>
</body>
</html>{{end}}`

var emailTemplates = map[string]*template.Template{
	"otp": mustEmail(`{{define "body"}}
		<h2 style="color: #1DB954; margin-top: 0;">Verify your email</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p>Your verification code is</p>
		<p style="font-size: 28px; letter-spacing: 6px;"><strong>{{.Code}}</strong></p>
		<p>It expires in {{.Minutes}} minutes.</p>
	{{end}}`),
	"entry": mustEmail(`{{define "body"}}
		<h2 style="color: #1DB954; margin-top: 0;">New expense added</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> added an expense in <strong>{{.GroupName}}</strong>:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Title}}</strong></p>
			<p style="margin: 4px 0; color: #666;">Total: {{.Amount}}</p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Share}}</strong></p>
		</div>
	{{end}}`),
	"settlement": mustEmail(`{{define "body"}}
		<h2 style="color: #1DB954; margin-top: 0;">Payment recorded</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> recorded a payment of <strong>{{.Amount}}</strong> to you in <strong>{{.GroupName}}</strong>.</p>
		<p>Check the app to see your updated balances.</p>
	{{end}}`),
	"invitation": mustEmail(`{{define "body"}}
		<h2 style="color: #1DB954; margin-top: 0;">You're invited!</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.SenderName}}</strong> invited you to join <strong>"{{.GroupName}}"</strong>.</p>
		<div style="margin: 24px 0;">
			<a href="{{.AppURL}}" style="background: #1DB954; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Open {{.AppName}}</a>
		</div>
	{{end}}`),
}

func mustEmail(body string) *template.Template {
	t := template.Must(template.New("layout").Parse(emailLayout))
	return template.Must(t.Parse(body))
}

func renderEmail(name string, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
