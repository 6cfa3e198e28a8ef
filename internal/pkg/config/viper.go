package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// envAliases binds config keys to environment variable names that do not follow
// the KEY_WITH_UNDERSCORES convention. These are the names the Mailry dashboard
// hands out and that existing deployments already export.
var envAliases = map[string][]string{
	"mail.mailry.api_key":         {"MAILRY_API_KEY"},
	"mail.mailry.api_base":        {"MAILRY_API_BASE"},
	"mail.mailry.sender_email_id": {"MAILRY_SENDER_EMAIL_ID"},
}

var defaults = map[string]any{
	"verification.code_length":                  6,
	"verification.code_ttl_minutes":             10,
	"verification.max_attempts":                 5,
	"verification.resend_interval_seconds":      60,
	"verification.dispatch_timeout_seconds":     5,
	"verification.hasher":                       "bcrypt",
	"verification.bcrypt_cost":                  8,
	"verification.template.cache_ttl_seconds":   60,
	"mail.mailry.api_base":                      "https://api.mailry.co",
	"mail.mailry.max_retries":                   2,
	"redis.cache_keep_seconds":                  3600,
	"gate.session_cookie":                       "titipyuk_session",
	"gate.verification_mode":                    "otp",
	"gate.login_path":                           "/login",
	"gate.verify_path":                          "/signup",
	"gate.landing_path":                         "/dashboard",
	"gate.protected_paths":                      "/dashboard*,/booking*,/checkout*,/confirmation*",
	"gate.auth_paths":                           "/login,/signup",
	"modules.verification.consumer_concurrency": 10,
	"modules.gate.enabled":                      true,
}

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads configuration from the given file path and watches it for changes.
//
// The config file type is inferred by Viper from the filename extension.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "error", err)
			return
		}
		slog.Info("config reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range envAliases {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	return v
}

func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

func (vc *Viper) GetInt32(key string) int32 {
	return vc.v.GetInt32(key)
}

func (vc *Viper) GetInt64(key string) int64 {
	return vc.v.GetInt64(key)
}

func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

func (vc *Viper) GetMillisecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Millisecond
}

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch value := vc.v.Get(key).(type) {
	case []any:
		raw = lo.Map(value, func(item any, _ int) string {
			s, _ := item.(string)
			return s
		})
	case []string:
		raw = value
	default:
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// Close stops nothing today; viper has no handle to release for the file watcher.
func (vc *Viper) Close() error {
	return nil
}
