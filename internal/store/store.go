package store

// VisitRecord is one row in scan_logs. Nullable columns are pointers so a
// missing value survives the round trip as JSON null rather than "".
// Headers and FPData hold pre-serialized JSON text; the read path returns
// them as-is without decoding.
type VisitRecord struct {
	ID            int64   `json:"id"`
	CreatedAt     string  `json:"created_at"`
	IP            *string `json:"ip"`
	IPRaw         *string `json:"ip_raw"`
	XForwardedFor *string `json:"x_forwarded_for"`
	Headers       string  `json:"headers"`
	UserAgent     string  `json:"user_agent"`
	FPData        *string `json:"fp_data"`
}

type Store interface {
	Insert(rec VisitRecord) error
	ListRecent(limit int) ([]VisitRecord, error)
	ListAll() ([]VisitRecord, error)
}
