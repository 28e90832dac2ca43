package httpapi

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/elChelMx/qr-sello/internal/core"
	"github.com/elChelMx/qr-sello/internal/metrics"
	"github.com/elChelMx/qr-sello/internal/store"
)

const logListLimit = 100

type Router struct {
	svc *core.Service
}

func NewRouter(svc *core.Service) http.Handler {
	r := chi.NewRouter()
	// Logging middleware
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", dur).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	api := &Router{svc: svc}

	r.MethodFunc(http.MethodGet, "/", api.handleLanding)
	r.MethodFunc(http.MethodGet, "/healthz", api.handleHealth)

	// Metrics
	r.MethodFunc(http.MethodGet, "/metrics", metrics.Handler)

	// Scan path (the QR code points here)
	r.MethodFunc(http.MethodGet, "/scan", api.handleScan)
	r.MethodFunc(http.MethodPost, "/scan/fp", api.handleFingerprint)

	// Export views
	r.Group(func(r chi.Router) {
		r.MethodFunc(http.MethodGet, "/admin/logs", api.handleLogs)
		r.MethodFunc(http.MethodGet, "/admin/logs.csv", api.handleLogsCSV)
	})

	return r
}

func (rt *Router) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("qr-sello up"))
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) handleScan(w http.ResponseWriter, r *http.Request) {
	visit := capture(r)
	rt.svc.LogVisit(visit)
	rt.svc.NotifyScan(visit.IP, visit.UserAgent)
	metrics.Scans.Inc()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(scanPage))
}

func (rt *Router) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	visit := capture(r)
	// An unreadable or malformed body is logged as a visit with no
	// fingerprint rather than rejected.
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 && json.Valid(body) {
		visit.Fingerprint = string(body)
	}
	rt.svc.LogVisit(visit)
	metrics.Fingerprints.Inc()

	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleLogs(w http.ResponseWriter, r *http.Request) {
	recs, err := rt.svc.Recent(logListLimit)
	if err != nil {
		log.Error().Err(err).Msg("list logs")
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []store.VisitRecord{}
	}
	writeJSON(w, recs, http.StatusOK)
}

func (rt *Router) handleLogsCSV(w http.ResponseWriter, r *http.Request) {
	recs, err := rt.svc.All()
	if err != nil {
		log.Error().Err(err).Msg("export logs")
		http.Error(w, "failed to read logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="scan_logs.csv"`)
	w.WriteHeader(http.StatusOK)

	var sb strings.Builder
	sb.WriteString("id,created_at,ip,ip_raw,x_forwarded_for,user_agent,fp_data\n")
	for _, rec := range recs {
		fields := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CreatedAt,
			deref(rec.IP),
			deref(rec.IPRaw),
			deref(rec.XForwardedFor),
			rec.UserAgent,
			deref(rec.FPData),
		}
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(csvQuote(f))
		}
		sb.WriteByte('\n')
	}
	w.Write([]byte(sb.String()))
}

// csvQuote wraps every field in quotes, doubling internal quotes. Absent
// values arrive as "" and render as an empty quoted field.
func csvQuote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func capture(r *http.Request) core.Capture {
	hdrs := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		hdrs[k] = strings.Join(v, ", ")
	}
	return core.Capture{
		IP:            clientIP(r),
		IPRaw:         r.RemoteAddr,
		XForwardedFor: r.Header.Get("X-Forwarded-For"),
		Headers:       hdrs,
		UserAgent:     r.UserAgent(),
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	// Try X-Forwarded-For or Real-IP first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-Ip"); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
