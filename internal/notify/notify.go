package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elChelMx/qr-sello/internal/config"
)

// Notifier delivers a best-effort scan alert. Implementations must never
// panic; the caller discards the error after logging it.
type Notifier interface {
	Notify(timestamp, ip, userAgent string) error
}

// New returns a Mailer when mail credentials are configured, otherwise a
// logging Noop.
func New(cfg config.Config) Notifier {
	if cfg.MailKey == "" {
		log.Warn().Msg("MAIL_API_KEY not set, scan notifications disabled")
		return Noop{}
	}
	return &Mailer{
		Endpoint: cfg.MailAPI,
		APIKey:   cfg.MailKey,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type Noop struct{}

func (Noop) Notify(timestamp, ip, userAgent string) error {
	log.Debug().Str("ip", ip).Msg("notifier disabled, dropping scan alert")
	return nil
}

// Mailer posts one message per scan to a transactional mail HTTP API.
type Mailer struct {
	Endpoint string
	APIKey   string
	From     string
	To       string
	Client   *http.Client
}

type mailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *Mailer) Notify(timestamp, ip, userAgent string) error {
	if ip == "" {
		ip = "unknown"
	}
	msg := mailMessage{
		From:    m.From,
		To:      []string{m.To},
		Subject: "QR code scanned",
		Text:    fmt.Sprintf("Scan at %s\nIP: %s\nUser-Agent: %s\n", timestamp, ip, userAgent),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail api returned %s", resp.Status)
	}
	return nil
}
