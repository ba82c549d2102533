package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mpiyush15/pixels-official-sub001/internal/config"
)

// RedisSender stores messages in Redis so tests and the service port can read them back.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
	ttl    time.Duration
}

func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg, ttl: 5 * time.Minute}
}

// StoredEmail is the JSON kept under a mock email key.
type StoredEmail struct {
	To         string `json:"to"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	TemplateID string `json:"template_id"`
	SentAt     string `json:"sent_at"`
}

// MockEmailKey is where the last message of a template to an address is stored.
func MockEmailKey(to, templateID string) string {
	if templateID == "" {
		templateID = "unknown"
	}
	return fmt.Sprintf("mockemail:%s:%s", strings.ToLower(to), templateID)
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	templateID := headerValue(rawMessage, TemplateHeader)
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	data, err := json.Marshal(StoredEmail{
		To:         strings.Join(to, ", "),
		From:       s.cfg.SmtpFromAddress,
		Subject:    subject,
		Body:       string(rawMessage),
		TemplateID: templateID,
		SentAt:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(primaryTo, templateID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}
	slog.DebugContext(ctx, "mock email stored", "key", key, "ttl", s.ttl)
	return nil
}

// GetStoredEmail reads back a message stored by RedisSender.
func GetStoredEmail(ctx context.Context, client *redis.Client, to, templateID string) (*StoredEmail, error) {
	raw, err := client.Get(ctx, MockEmailKey(to, templateID)).Bytes()
	if err != nil {
		return nil, err
	}
	var stored StoredEmail
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored email: %w", err)
	}
	return &stored, nil
}
