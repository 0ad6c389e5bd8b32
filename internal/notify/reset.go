package notify

import "html/template"

var resetTmpl = template.Must(template.New("reset").Parse(`<h2>Reset your password</h2>
<p>We received a request to reset the password for {{.Title}}.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>
`))

// PasswordResetMail builds the mail carrying a provider reset link.
func PasswordResetMail(to, link string) (Mail, error) {
	html, err := render(resetTmpl, bodyData{Title: to, Link: link})
	if err != nil {
		return Mail{}, err
	}
	return Mail{
		To:      to,
		Subject: "Reset your password",
		Text:    "Reset your password: " + link,
		HTML:    html,
	}, nil
}
