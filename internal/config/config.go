package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/a8m/envsubst"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Options     Options     `yaml:"options"`
	Credentials Credentials `yaml:"credentials"`
	Browser     Browser     `yaml:"browser"`
	Login       Login       `yaml:"login"`
	Verify      Verify      `yaml:"verify"`
	Alerts      Alerts      `yaml:"alerts"`
	Logging     Logging     `yaml:"logging"`
	Targets     []Target    `yaml:"targets" validate:"required,min=1,dive"`
}

// Options holds flat string settings that can be overridden from the command
// line. Every field must be a string; see cmd/portalwatch/flags.go.
type Options struct {
	ScreenshotsDir string `yaml:"screenshots_dir"`
	Schedule       string `yaml:"schedule"`
	Watchdog       string `yaml:"watchdog" validate:"omitempty,duration"`
	LogLevel       string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

type Credentials struct {
	ID     string `yaml:"id" validate:"required"`
	Secret string `yaml:"secret" validate:"required"`
}

type Browser struct {
	Headful           bool     `yaml:"headful"`
	Width             int      `yaml:"width" validate:"gte=0"`
	Height            int      `yaml:"height" validate:"gte=0"`
	WaitUntil         string   `yaml:"wait_until" validate:"omitempty,oneof=load domcontentloaded networkidle commit"`
	NavigationTimeout Duration `yaml:"navigation_timeout" validate:"gt=0"`
}

type Login struct {
	ButtonLabels        []string `yaml:"button_labels"`
	PasswordMethodLabel string   `yaml:"password_method_label"`
	IDSelector          string   `yaml:"id_selector"`
	PasswordSelector    string   `yaml:"password_selector"`
	SubmitLabel         string   `yaml:"submit_label"`
	DialogSelector      string   `yaml:"dialog_selector"`
	ButtonTimeout       Duration `yaml:"button_timeout" validate:"gt=0"`
	MethodTimeout       Duration `yaml:"method_timeout" validate:"gt=0"`
	FormTimeout         Duration `yaml:"form_timeout" validate:"gt=0"`
	SettleTimeout       Duration `yaml:"settle_timeout" validate:"gt=0"`
}

type Verify struct {
	ReadyMarkers  []string `yaml:"ready_markers"`
	FatalMarkers  []string `yaml:"fatal_markers"`
	ReadyTimeout  Duration `yaml:"ready_timeout" validate:"gt=0"`
	IdleTimeout   Duration `yaml:"idle_timeout" validate:"gt=0"`
	Deadline      Duration `yaml:"deadline" validate:"gt=0"`
	Interval      Duration `yaml:"interval" validate:"gt=0"`
	PreviewLength int      `yaml:"preview_length" validate:"gte=0"`
}

type Alerts struct {
	Enabled    bool       `yaml:"enabled"`
	Provider   string     `yaml:"provider" validate:"omitempty,oneof=courier shoutrrr"`
	Recipients Recipients `yaml:"recipients" validate:"dive,email"`
	Template   string     `yaml:"template"`
	Courier    Courier    `yaml:"courier"`
	Shoutrrr   Shoutrrr   `yaml:"shoutrrr"`
}

type Courier struct {
	APIKey  string   `yaml:"api_key"`
	URL     string   `yaml:"url" validate:"omitempty,url"`
	Timeout Duration `yaml:"timeout" validate:"gt=0"`
}

type Shoutrrr struct {
	URL string `yaml:"url"`
}

type Logging struct {
	Loki Loki `yaml:"loki"`
}

type Loki struct {
	URL          string            `yaml:"url" validate:"omitempty,url"`
	Job          string            `yaml:"job"`
	Labels       map[string]string `yaml:"labels"`
	Timeout      Duration          `yaml:"timeout" validate:"gt=0"`
	DrainTimeout Duration          `yaml:"drain_timeout" validate:"gt=0"`
	MaxInFlight  int               `yaml:"max_in_flight" validate:"gte=0"`
}

type Target struct {
	Name           string `yaml:"name" validate:"required"`
	Env            string `yaml:"env" validate:"required"`
	URL            string `yaml:"url" validate:"required,url"`
	ExpectedMarker string `yaml:"expected_marker" validate:"required"`
	AlertTitle     string `yaml:"alert_title" validate:"required"`
}

// Duration handles Go duration strings ("90s", "3m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return fmt.Errorf("duration: must be a string like \"30s\"")
	}
	parsed, err := time.ParseDuration(str)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// Recipients handles a comma-separated string or a list of addresses.
type Recipients []string

func (r *Recipients) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		*r = ParseRecipients(str)
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("recipients: must be a comma-separated string or a list")
	}
	*r = ParseRecipients(strings.Join(list, ","))
	return nil
}

// ParseRecipients splits a comma-separated address list, dropping blanks.
func ParseRecipients(s string) Recipients {
	var out Recipients
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and fills defaults.
// It does not validate; call Validate for that.
func Parse(data []byte) (*Config, error) {
	data, err := envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// FindTarget returns the target with the given name, or nil if not found.
func (c *Config) FindTarget(name string) *Target {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i]
		}
	}
	return nil
}

// WatchdogTimeout returns the parsed watchdog ceiling. Options are validated
// before use, so a parse failure falls back to the default.
func (c *Config) WatchdogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Options.Watchdog)
	if err != nil || d <= 0 {
		return DefaultWatchdog
	}
	return d
}
