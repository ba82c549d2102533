package email

import (
	"bufio"
	"bytes"
	"fmt"
	"net/textproto"
	"strings"
	"time"
)

// TemplateHeader carries the template id so sinks can key stored messages by it.
const TemplateHeader = "X-Template-ID"

// Message is a single plain-text email.
type Message struct {
	From       string
	To         string
	Subject    string
	Body       string
	TemplateID string
	Date       time.Time
}

// Bytes renders the message with CRLF line endings.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", m.To)
	fmt.Fprintf(&sb, "From: %s\r\n", m.From)
	fmt.Fprintf(&sb, "Subject: %s\r\n", oneLine(m.Subject))
	fmt.Fprintf(&sb, "Date: %s\r\n", date.Format(time.RFC1123Z))
	if m.TemplateID != "" {
		fmt.Fprintf(&sb, "%s: %s\r\n", TemplateHeader, m.TemplateID)
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// headerValue reads a header from a raw message, returning "" when absent.
func headerValue(raw []byte, key string) string {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw)))
	h, err := r.ReadMIMEHeader()
	if err != nil && len(h) == 0 {
		return ""
	}
	return h.Get(key)
}

// oneLine keeps header injection out of the subject.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
