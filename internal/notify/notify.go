// Package notify is the outgoing-notification boundary. Delivery is
// fire-and-forget: callers log failures and move on, they never roll back
// work because a message did not go out.
package notify

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hmlegal/lexintake/internal/caserec"
	"github.com/hmlegal/lexintake/internal/config"
)

// Message is one outgoing notification.
type Message struct {
	// ID is a ULID assigned when the message is built, for correlating
	// console/log output with the triggering request
	ID      string
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations are best-effort; an error
// means the message may not have been delivered, nothing more.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DocumentsReceivedSubject is the subject line for the documents-received
// notification.
const DocumentsReceivedSubject = "We received your immigration documents"

// NewMessage builds a message with a fresh ULID.
func NewMessage(to, subject, body string) Message {
	return Message{
		ID:      newULID(),
		To:      to,
		Subject: subject,
		Body:    body,
	}
}

// BuildDocumentsReceived builds the notification sent to a client after a
// document submission. The body reports the case's current docs-received
// state and case type.
func BuildDocumentsReceived(c *caserec.CaseRecord, cfg *config.Config) Message {
	caseType := c.CaseType
	if caseType == "" {
		caseType = "Not specified"
	}

	officeName := cfg.OfficeName
	if officeName == "" {
		officeName = config.DefaultConfig().OfficeName
	}

	bodyLines := []string{
		fmt.Sprintf("Hi %s,", c.FullName),
		"",
		"Thank you for submitting your documents. We have received them in our secure system.",
		"",
		"Current status:",
		fmt.Sprintf("  - Documents received: %s", c.DocsReceived),
		fmt.Sprintf("  - Case type: %s", caseType),
		"",
		"If anything else is needed, our office will reach out with next steps.",
		"",
		"Best regards,",
		officeName,
	}

	return NewMessage(c.Email, DocumentsReceivedSubject, strings.Join(bodyLines, "\n"))
}

// ConsoleSender prints messages to a writer instead of delivering them.
// Stands in for a real transport during demos and local use.
type ConsoleSender struct {
	mu   sync.Mutex
	w    io.Writer
	from string
}

// NewConsoleSender creates a ConsoleSender writing to w. from is optional
// and shown in the frame when set.
func NewConsoleSender(w io.Writer, from string) *ConsoleSender {
	return &ConsoleSender{w: w, from: from}
}

// Send implements Sender by printing a framed rendition of the message.
func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("EMAIL SENT (DEMO ONLY)\n")
	b.WriteString("Message-ID: " + msg.ID + "\n")
	if s.from != "" {
		b.WriteString("From: " + s.from + "\n")
	}
	b.WriteString("To: " + msg.To + "\n")
	b.WriteString("Subject: " + msg.Subject + "\n")
	b.WriteString(thin + "\n")
	b.WriteString(msg.Body + "\n")
	b.WriteString(rule + "\n\n")

	_, err := io.WriteString(s.w, b.String())
	return err
}

// newULID generates a new ULID for message correlation.
func newULID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		// crypto/rand failures are not recoverable here; fall back to a
		// timestamp-only id rather than failing the send path.
		return fmt.Sprintf("msg-%d", time.Now().UnixNano())
	}
	return id.String()
}
