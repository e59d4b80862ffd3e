package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/smtp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// ErrNoAdminAddress is returned when an admin alert has nowhere to go.
var ErrNoAdminAddress = errors.New("email: no admin address configured")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends multipart (plain text + HTML) mail over SMTP.
type EmailNotifier struct {
	host       string
	port       int
	username   string
	password   string
	from       string
	senderName string
	adminEmail string
	send       sendFunc
	now        func() time.Time
	logger     arbor.ILogger
}

var _ Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(cfg config.NotifierConfig, logger arbor.ILogger) *EmailNotifier {
	return &EmailNotifier{
		host:       cfg.Email.SMTPHost,
		port:       cfg.Email.SMTPPort,
		username:   cfg.Email.Username,
		password:   cfg.Email.Password,
		from:       cfg.Email.From,
		senderName: cfg.Email.SenderName,
		adminEmail: cfg.AdminEmail,
		send:       smtp.SendMail,
		now:        time.Now,
		logger:     logger,
	}
}

// SendBatch sends a single message with every recipient on the envelope
// only. The visible To header carries the sender address.
func (p *EmailNotifier) SendBatch(_ context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}

	msg, err := p.buildMessage(subject, body)
	if err != nil {
		return err
	}
	if err := p.deliver(recipients, msg); err != nil {
		return err
	}

	p.logger.Info().
		Str("subject", subject).
		Int("recipients", len(recipients)).
		Msg("Email batch sent")
	return nil
}

func (p *EmailNotifier) SendAdminAlert(_ context.Context, subject, body string) error {
	if p.adminEmail == "" {
		return ErrNoAdminAddress
	}

	msg, err := p.buildMessage(subject, body)
	if err != nil {
		return err
	}
	return p.deliver([]string{p.adminEmail}, msg)
}

func (p *EmailNotifier) deliver(to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	if err := p.send(addr, auth, p.from, to, msg); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

func (p *EmailNotifier) buildMessage(subject, body string) ([]byte, error) {
	htmlBody, err := renderHTML(body)
	if err != nil {
		return nil, err
	}

	sender := &mail.Address{Name: p.senderName, Address: p.from}

	var h mail.Header
	h.SetDate(p.now())
	h.SetAddressList("From", []*mail.Address{sender})
	h.SetAddressList("To", []*mail.Address{{Address: p.from}})
	h.SetSubject(subject)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("email: create message: %w", err)
	}

	alt, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("email: create alternative part: %w", err)
	}
	if err := writePart(alt, "text/plain", body); err != nil {
		return nil, err
	}
	if err := writePart(alt, "text/html", htmlBody); err != nil {
		return nil, err
	}
	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("email: close alternative part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("email: close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(w *mail.InlineWriter, contentType, content string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("email: create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, content); err != nil {
		return fmt.Errorf("email: write %s part: %w", contentType, err)
	}
	return pw.Close()
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

const htmlHead = `<!DOCTYPE html><html><head><meta charset="utf-8"><style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 760px; margin: 0 auto; padding: 20px; color: #333; line-height: 1.5; }
h1 { color: #1a1a2e; border-bottom: 2px solid #e94560; padding-bottom: 10px; }
h2, h3 { color: #16213e; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 6px 8px; text-align: left; }
th { background: #f0f0f0; }
a { color: #0f3460; }
</style></head><body>`

// renderHTML renders a Markdown body as a standalone HTML document.
func renderHTML(body string) (string, error) {
	var sb strings.Builder
	sb.WriteString(htmlHead)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("email: render markdown: %w", err)
	}
	sb.Write(buf.Bytes())
	sb.WriteString("</body></html>")
	return sb.String(), nil
}
