package module

import (
	"time"

	"flexcode/internal/platform/config"
)

// Options selects the social source and polling cadence
type Options struct {
	Source        string // x | telegram | none
	MentionsEvery time.Duration
	DirectEvery   time.Duration
	HandleTimeout time.Duration
	Autostart     bool

	XBearerToken  string
	XUserID       string
	XBaseURL      string
	TelegramToken string
}

// FromConfig reads POLL_* plus the X_ and TELEGRAM_ credentials. Without
// POLL_SOURCE the first channel with credentials wins
func FromConfig(cfg config.Conf) Options {
	p := cfg.Prefix("POLL_")
	xc := cfg.Prefix("X_")
	o := Options{
		MentionsEvery: p.MayDuration("MENTIONS_EVERY", 30*time.Second),
		DirectEvery:   p.MayDuration("DMS_EVERY", 60*time.Second),
		HandleTimeout: p.MayDuration("HANDLE_TIMEOUT", time.Minute),
		Autostart:     p.MayBool("AUTOSTART", false),
		XBearerToken:  xc.MayString("BEARER_TOKEN", ""),
		XUserID:       xc.MayString("USER_ID", ""),
		XBaseURL:      xc.MayString("API_BASE", ""),
		TelegramToken: cfg.MayString("TELEGRAM_BOT_TOKEN", ""),
	}
	def := "none"
	switch {
	case o.XBearerToken != "" && o.XUserID != "":
		def = "x"
	case o.TelegramToken != "":
		def = "telegram"
	}
	o.Source = p.MayEnum("SOURCE", def, "x", "telegram", "none")
	return o
}
