package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	DBDSN    string
	MailAPI  string // transactional mail endpoint
	MailKey  string // empty disables notifications
	MailFrom string
	MailTo   string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	_ = godotenv.Load() // .env is optional

	from := getenv("MAIL_FROM", "qr-sello@localhost")
	return Config{
		Port:     getint("PORT", 8080),
		DBDSN:    getenv("DB_DSN", "file:scan_logs.db?_foreign_keys=on"),
		MailAPI:  getenv("MAIL_API_URL", "https://api.resend.com/emails"),
		MailKey:  getenv("MAIL_API_KEY", ""),
		MailFrom: from,
		MailTo:   getenv("MAIL_TO", from),
	}
}
