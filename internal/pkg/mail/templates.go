package mail

import (
	"bytes"
	"html/template"
)

const verificationTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Confirm your subscription</h2>
  <p>Thanks for signing up! Click the button below to confirm your email address:</p>
  <p style="margin-top:24px">
    <a href="{{.ConfirmURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Confirm my subscription</a>
  </p>
  <p>Or enter this code on the confirmation page: <strong style="font-size:18px;letter-spacing:2px">{{.Code}}</strong></p>
  <p style="color:#999;font-size:12px">The link expires in 1 hour, the code in 15 minutes. If this wasn't you, just ignore this email.</p>
</div>
</body>
</html>`

const receiptTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Subscription confirmed</h2>
  <p>Your email address is verified. You'll receive the next newsletter issue.</p>
  <p style="color:#999;font-size:12px">You can unsubscribe at any time from any issue.</p>
</div>
</body>
</html>`

const unsubscribeCodeTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Unsubscribe request</h2>
  <p>We received a request to unsubscribe this address. Enter this code to confirm:</p>
  <p style="font-size:24px;letter-spacing:4px;font-weight:bold">{{.Code}}</p>
  <p style="color:#999;font-size:12px">The code expires in 15 minutes. If this wasn't you, ignore this email and you'll stay subscribed.</p>
</div>
</body>
</html>`

const farewellTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">You're unsubscribed</h2>
  <p>This address has been removed from the newsletter. Sorry to see you go!</p>
</div>
</body>
</html>`

var templates = template.Must(template.New("verification").Parse(verificationTpl))

func init() {
	template.Must(templates.New("receipt").Parse(receiptTpl))
	template.Must(templates.New("unsubscribe_code").Parse(unsubscribeCodeTpl))
	template.Must(templates.New("farewell").Parse(farewellTpl))
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendVerification mails the confirmation link and fallback code.
func (s *Sender) SendVerification(to, confirmURL, code string) error {
	html, err := render("verification", struct{ ConfirmURL, Code string }{confirmURL, code})
	if err != nil {
		return err
	}
	return s.Send(Message{To: []string{to}, Subject: "Confirm your newsletter subscription", HTML: html})
}

// SendConfirmed mails the post-verification receipt.
func (s *Sender) SendConfirmed(to string) error {
	html, err := render("receipt", nil)
	if err != nil {
		return err
	}
	return s.Send(Message{To: []string{to}, Subject: "Subscription confirmed", HTML: html})
}

// SendUnsubscribeCode mails a one-time unsubscribe confirmation code.
func (s *Sender) SendUnsubscribeCode(to, code string) error {
	html, err := render("unsubscribe_code", struct{ Code string }{code})
	if err != nil {
		return err
	}
	return s.Send(Message{To: []string{to}, Subject: "Confirm unsubscribe", HTML: html})
}

// SendFarewell mails the goodbye notice after a confirmed unsubscribe.
func (s *Sender) SendFarewell(to string) error {
	html, err := render("farewell", nil)
	if err != nil {
		return err
	}
	return s.Send(Message{To: []string{to}, Subject: "You're unsubscribed", HTML: html})
}

// SendNewsletter mails one rendered newsletter issue to a single recipient.
func (s *Sender) SendNewsletter(to, subject, html string) error {
	return s.Send(Message{To: []string{to}, Subject: subject, HTML: html})
}

// SendTest mails a plain-text probe to the given address.
func (s *Sender) SendTest(to string) error {
	return s.Send(Message{To: []string{to}, Subject: "Test mail", Text: "This is a delivery test from the newsletter service."})
}
