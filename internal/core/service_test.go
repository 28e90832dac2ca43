package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/elChelMx/qr-sello/internal/store"
)

type fakeStore struct {
	recs    []store.VisitRecord
	failing bool
}

func (f *fakeStore) Insert(rec store.VisitRecord) error {
	if f.failing {
		return errors.New("disk full")
	}
	rec.ID = int64(len(f.recs) + 1)
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStore) ListRecent(limit int) ([]store.VisitRecord, error) {
	if limit > len(f.recs) {
		limit = len(f.recs)
	}
	out := make([]store.VisitRecord, 0, limit)
	for i := len(f.recs) - 1; i >= len(f.recs)-limit; i-- {
		out = append(out, f.recs[i])
	}
	return out, nil
}

func (f *fakeStore) ListAll() ([]store.VisitRecord, error) {
	return f.ListRecent(len(f.recs))
}

type fakeNotifier struct {
	calls chan string
	err   error
}

func (f *fakeNotifier) Notify(timestamp, ip, userAgent string) error {
	if f.calls != nil {
		f.calls <- ip
	}
	return f.err
}

func TestLogVisitBasicRecord(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, &fakeNotifier{})

	svc.LogVisit(Capture{
		IP:        "203.0.113.9",
		IPRaw:     "10.0.0.1:5000",
		Headers:   map[string]string{"User-Agent": "curl/8.0"},
		UserAgent: "curl/8.0",
	})

	if len(fs.recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(fs.recs))
	}
	rec := fs.recs[0]

	ts, err := time.Parse(time.RFC3339, rec.CreatedAt)
	if err != nil {
		t.Fatalf("created_at not RFC3339: %q", rec.CreatedAt)
	}
	if ts.Location() != time.UTC {
		t.Errorf("created_at not UTC: %q", rec.CreatedAt)
	}
	if rec.IP == nil || *rec.IP != "203.0.113.9" {
		t.Errorf("ip: %v", rec.IP)
	}
	if rec.XForwardedFor != nil {
		t.Errorf("absent xff should be nil, got %v", rec.XForwardedFor)
	}
	if rec.FPData != nil {
		t.Errorf("scan without fingerprint should store nil fp_data, got %v", rec.FPData)
	}

	var hdrs map[string]string
	if err := json.Unmarshal([]byte(rec.Headers), &hdrs); err != nil {
		t.Fatalf("headers not valid json: %q", rec.Headers)
	}
	if hdrs["User-Agent"] != "curl/8.0" {
		t.Errorf("headers content: %v", hdrs)
	}
}

func TestLogVisitEmptyCapture(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, &fakeNotifier{})

	svc.LogVisit(Capture{})

	rec := fs.recs[0]
	if rec.Headers != "{}" {
		t.Errorf("headers must always be a serialized object, got %q", rec.Headers)
	}
	if rec.UserAgent != "" {
		t.Errorf("user agent defaults to empty string, got %q", rec.UserAgent)
	}
}

func TestLogVisitWithFingerprint(t *testing.T) {
	fs := &fakeStore{}
	svc := NewService(fs, &fakeNotifier{})

	svc.LogVisit(Capture{Fingerprint: `{"language":"en"}`})

	rec := fs.recs[0]
	if rec.FPData == nil || *rec.FPData != `{"language":"en"}` {
		t.Errorf("fp_data: %v", rec.FPData)
	}
}

func TestLogVisitSwallowsStoreErrors(t *testing.T) {
	svc := NewService(&fakeStore{failing: true}, &fakeNotifier{})

	// Must not panic or propagate anything
	svc.LogVisit(Capture{IP: "203.0.113.9"})
}

func TestNotifierDelivery(t *testing.T) {
	fn := &fakeNotifier{calls: make(chan string, 1)}
	svc := NewService(&fakeStore{}, fn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.RunNotifier(ctx)

	svc.NotifyScan("203.0.113.9", "curl/8.0")

	select {
	case ip := <-fn.calls:
		if ip != "203.0.113.9" {
			t.Errorf("notified wrong ip: %q", ip)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
}

func TestNotifyScanNeverBlocks(t *testing.T) {
	// No RunNotifier consuming, so the buffer fills; submissions past
	// capacity must drop instead of blocking the request path.
	svc := NewService(&fakeStore{}, &fakeNotifier{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			svc.NotifyScan("203.0.113.9", "ua")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("NotifyScan blocked")
	}
}

func TestNotifierFailureIsContained(t *testing.T) {
	fn := &fakeNotifier{calls: make(chan string, 1), err: errors.New("mail api down")}
	svc := NewService(&fakeStore{}, fn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.RunNotifier(ctx)

	svc.NotifyScan("203.0.113.9", "ua")

	select {
	case <-fn.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never invoked")
	}
	// Failure is logged and dropped; nothing to assert beyond no panic.
}
