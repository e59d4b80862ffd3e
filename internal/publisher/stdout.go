package publisher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// StdoutNotifier prints messages instead of sending them. It backs dry runs.
type StdoutNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Notifier = (*StdoutNotifier)(nil)

func NewStdoutNotifier(w io.Writer) *StdoutNotifier {
	return &StdoutNotifier{w: w}
}

func (p *StdoutNotifier) SendBatch(_ context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	return p.print(subject, fmt.Sprintf("%d recipient(s)", len(recipients)), body)
}

func (p *StdoutNotifier) SendAdminAlert(_ context.Context, subject, body string) error {
	return p.print(subject, "admin", body)
}

func (p *StdoutNotifier) print(subject, to, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 72) + "\n")
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "To: %s\n", to)
	b.WriteString(strings.Repeat("=", 72) + "\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")

	_, err := io.WriteString(p.w, b.String())
	return err
}
