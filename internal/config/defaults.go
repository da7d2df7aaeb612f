package config

import "time"

const (
	DefaultWatchdog       = 20 * time.Minute
	DefaultScreenshotsDir = "screenshots"
	DefaultCourierURL     = "https://api.courier.com/send"
)

var (
	defaultButtonLabels = []string{"התחברות"}
	defaultReadyMarkers = []string{"התנתקות", "האזור האישי", "יציאה"}
	defaultFatalMarkers = []string{
		"Error 500",
		"Internal Server Error",
		"Service Unavailable",
		"שגיאה כללית",
		"An unexpected error",
		"Exception",
	}
)

// ApplyDefaults fills unset fields. It is called by Parse and is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Options.ScreenshotsDir == "" {
		c.Options.ScreenshotsDir = DefaultScreenshotsDir
	}
	if c.Options.Watchdog == "" {
		c.Options.Watchdog = DefaultWatchdog.String()
	}
	if c.Options.LogLevel == "" {
		c.Options.LogLevel = "info"
	}

	b := &c.Browser
	if b.Width == 0 {
		b.Width = 1920
	}
	if b.Height == 0 {
		b.Height = 1080
	}
	if b.WaitUntil == "" {
		b.WaitUntil = "networkidle"
	}
	setDuration(&b.NavigationTimeout, 60*time.Second)

	l := &c.Login
	if len(l.ButtonLabels) == 0 {
		l.ButtonLabels = defaultButtonLabels
	}
	if l.PasswordMethodLabel == "" {
		l.PasswordMethodLabel = "באמצעות סיסמה"
	}
	if l.IDSelector == "" {
		l.IDSelector = `input[name="tz"]`
	}
	if l.PasswordSelector == "" {
		l.PasswordSelector = `input[name="password"]`
	}
	if l.SubmitLabel == "" {
		l.SubmitLabel = "התחברות"
	}
	if l.DialogSelector == "" {
		l.DialogSelector = `[role="dialog"]`
	}
	setDuration(&l.ButtonTimeout, 15*time.Second)
	setDuration(&l.MethodTimeout, 10*time.Second)
	setDuration(&l.FormTimeout, 15*time.Second)
	setDuration(&l.SettleTimeout, 30*time.Second)

	v := &c.Verify
	if len(v.ReadyMarkers) == 0 {
		v.ReadyMarkers = defaultReadyMarkers
	}
	if len(v.FatalMarkers) == 0 {
		v.FatalMarkers = defaultFatalMarkers
	}
	setDuration(&v.ReadyTimeout, 60*time.Second)
	setDuration(&v.IdleTimeout, 10*time.Second)
	setDuration(&v.Deadline, 180*time.Second)
	setDuration(&v.Interval, time.Second)
	if v.PreviewLength == 0 {
		v.PreviewLength = 300
	}

	a := &c.Alerts
	if a.Provider == "" {
		a.Provider = "courier"
	}
	if a.Courier.URL == "" {
		a.Courier.URL = DefaultCourierURL
	}
	setDuration(&a.Courier.Timeout, 15*time.Second)

	k := &c.Logging.Loki
	if k.Job == "" {
		k.Job = "portalwatch"
	}
	setDuration(&k.Timeout, 5*time.Second)
	setDuration(&k.DrainTimeout, 5*time.Second)
	if k.MaxInFlight == 0 {
		k.MaxInFlight = 64
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}
