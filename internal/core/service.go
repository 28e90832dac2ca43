package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elChelMx/qr-sello/internal/metrics"
	"github.com/elChelMx/qr-sello/internal/notify"
	"github.com/elChelMx/qr-sello/internal/store"
)

// Capture is everything the transport layer saw about one visit. Nothing in
// it is validated; the logger stores whatever the request carried.
type Capture struct {
	IP            string            // proxy-resolved client IP, "" if unknown
	IPRaw         string            // transport peer address
	XForwardedFor string            // raw X-Forwarded-For value, "" if absent
	Headers       map[string]string // flattened request headers
	UserAgent     string
	Fingerprint   string // pre-serialized JSON, "" if the client sent none
}

type scanAlert struct {
	Timestamp string
	IP        string
	UserAgent string
}

type Service struct {
	store    store.Store
	notifier notify.Notifier
	alertsCh chan scanAlert
}

func NewService(s store.Store, n notify.Notifier) *Service {
	return &Service{
		store:    s,
		notifier: n,
		alertsCh: make(chan scanAlert, 100),
	}
}

// LogVisit normalizes a capture into a row and appends it. Storage failures
// are logged and swallowed; the triggering request still succeeds.
func (s *Service) LogVisit(v Capture) {
	rec := store.VisitRecord{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Headers:   serializeHeaders(v.Headers),
		UserAgent: v.UserAgent,
	}
	if v.IP != "" {
		rec.IP = &v.IP
	}
	if v.IPRaw != "" {
		rec.IPRaw = &v.IPRaw
	}
	if v.XForwardedFor != "" {
		rec.XForwardedFor = &v.XForwardedFor
	}
	if v.Fingerprint != "" {
		rec.FPData = &v.Fingerprint
	}
	if err := s.store.Insert(rec); err != nil {
		metrics.InsertErrors.Inc()
		log.Error().Err(err).Str("ip", v.IP).Msg("insert visit")
	}
}

func serializeHeaders(h map[string]string) string {
	if h == nil {
		h = map[string]string{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// NotifyScan queues a scan alert without blocking the request path.
func (s *Service) NotifyScan(ip, userAgent string) {
	alert := scanAlert{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		IP:        ip,
		UserAgent: userAgent,
	}
	select {
	case s.alertsCh <- alert:
	default:
		// Drop if buffer full to keep the scan response fast
		metrics.NotificationsDropped.Inc()
	}
}

// RunNotifier drains queued alerts until ctx is done. Delivery failures are
// logged and never reach an HTTP caller.
func (s *Service) RunNotifier(ctx context.Context) {
	for {
		select {
		case alert := <-s.alertsCh:
			if err := s.notifier.Notify(alert.Timestamp, alert.IP, alert.UserAgent); err != nil {
				metrics.NotificationsFailed.Inc()
				log.Error().Err(err).Str("ip", alert.IP).Msg("scan notification")
			} else {
				metrics.NotificationsSent.Inc()
			}
		case <-ctx.Done():
			return
		}
	}
}

// Recent returns the newest records, capped at limit.
func (s *Service) Recent(limit int) ([]store.VisitRecord, error) {
	return s.store.ListRecent(limit)
}

// All returns every record, newest first.
func (s *Service) All() ([]store.VisitRecord, error) {
	return s.store.ListAll()
}
