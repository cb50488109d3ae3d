package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// Config holds mail provider settings.
type Config struct {
	Enable    bool   `json:"enable"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Pass      string `json:"pass"`
	From      string `json:"from"`
	ReplyTo   string `json:"reply_to"`
	UseResend bool   `json:"use_resend"`
	ResendKey string `json:"resend_key"`
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender sends emails via SMTP or Resend. Best-effort and at-least-once from
// the caller's point of view: failures are returned, never retried here.
type Sender struct {
	cfg Config
}

func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// From returns the configured sender address.
func (s *Sender) From() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.User
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.UseResend && s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

// Ping checks that the SMTP host accepts connections. Used at startup to
// surface misconfigured transports early; not available for Resend.
func (s *Sender) Ping() error {
	if !s.cfg.Enable || s.cfg.UseResend {
		return nil
	}
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	client, err := smtp.Dial(fmt.Sprintf("%s:%d", s.cfg.Host, port))
	if err != nil {
		return err
	}
	return client.Close()
}

var headerSanitizer = strings.NewReplacer("\r", "", "\n", "")

// sanitizeHeader strips CR/LF so caller-supplied values (newsletter subjects
// in particular) cannot inject SMTP headers.
func sanitizeHeader(v string) string {
	return headerSanitizer.Replace(v)
}

// sendSMTP sends via net/smtp.
func (s *Sender) sendSMTP(msg Message) error {
	host := s.cfg.Host
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	from := s.From()

	var body bytes.Buffer
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString(fmt.Sprintf("From: %s\r\n", sanitizeHeader(from)))
	body.WriteString(fmt.Sprintf("To: %s\r\n", sanitizeHeader(strings.Join(msg.To, ", "))))
	body.WriteString(fmt.Sprintf("Subject: %s\r\n", sanitizeHeader(msg.Subject)))
	if msg.HTML != "" {
		body.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	} else {
		body.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	}
	if s.cfg.ReplyTo != "" {
		body.WriteString(fmt.Sprintf("Reply-To: %s\r\n", sanitizeHeader(s.cfg.ReplyTo)))
	}
	body.WriteString("\r\n")
	if msg.HTML != "" {
		body.WriteString(msg.HTML)
	} else {
		body.WriteString(msg.Text)
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, host)
	return smtp.SendMail(addr, auth, from, msg.To, body.Bytes())
}

// sendResend sends via the Resend HTTP API.
func (s *Sender) sendResend(msg Message) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"from":    s.From(),
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
		"text":    msg.Text,
	})

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}
