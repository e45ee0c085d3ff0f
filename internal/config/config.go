// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/guia-turistico/internal/change"
)

const (
	configEnv    = "GUIATURISTICO"
	maxPrecision = 8
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Tracking struct {
		// Movements below this distance in meters are insignificant
		MinDistance float64 `fig:"min_distance" default:"20"`
		// Updates quicker than this are insignificant unless the movement exceeds MinDistance
		MinInterval time.Duration `fig:"min_interval" default:"1m"`
		// Samples with a worse accuracy in meters are rejected. 0 disables the check.
		MaxAccuracy float64 `fig:"max_accuracy" default:"100"`
	} `fig:"tracking"`

	Cache struct {
		Capacity int `fig:"capacity" default:"200"`
		// Number of decimal places coordinates are rounded to for the cache key
		Precision int `fig:"precision" default:"4"`
	} `fig:"cache"`

	Change struct {
		// Allowed values: municipio, bairro, logradouro
		Priority []string `fig:"priority" default:"[municipio,bairro,logradouro]"`
	} `fig:"change"`

	Speech struct {
		TTL      time.Duration `fig:"ttl" default:"5s"`
		Capacity int           `fig:"capacity" default:"5"`
		Interval time.Duration `fig:"interval" default:"1s"`
		// External text-to-speech command, e.g. "espeak-ng -v pt-br". Empty prints to stdout.
		Command string `fig:"command"`
		// Maximum display width of console announcements. 0 disables truncation.
		Width      int `fig:"width"`
		Priorities struct {
			Municipio  int `fig:"municipio" default:"2"`
			Bairro     int `fig:"bairro" default:"1"`
			Logradouro int `fig:"logradouro"`
		} `fig:"priorities"`
	} `fig:"speech"`

	Templates struct {
		Municipio  string `fig:"municipio"`
		Bairro     string `fig:"bairro"`
		Logradouro string `fig:"logradouro"`
	} `fig:"templates"`

	GeoCoder struct {
		// Allowed values: nominatim, opencage
		Provider string `fig:"provider" default:"nominatim"`
		APIKey   string `fig:"apikey"`
	} `fig:"geocoder"`

	GeoLocation struct {
		GeoLocationFile        string `fig:"file"`
		GPSDAddress            string `fig:"gpsd_address" default:"localhost:2947"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
		DisableGPSD            bool   `fig:"disable_gpsd"`
	} `fig:"geolocation"`

	Intervals struct {
		Status time.Duration `fig:"status" default:"5m"`
	} `fig:"intervals"`

	Metrics struct {
		// Address of the Prometheus metrics endpoint, e.g. "127.0.0.1:9464". Empty disables it.
		Listen string `fig:"listen"`
	} `fig:"metrics"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Tracking.MinDistance < 0 {
		return fmt.Errorf("invalid minimum distance: %f", c.Tracking.MinDistance)
	}
	if c.Tracking.MinInterval < 0 {
		return fmt.Errorf("invalid minimum interval: %s", c.Tracking.MinInterval)
	}
	if c.Tracking.MaxAccuracy < 0 {
		return fmt.Errorf("invalid maximum accuracy: %f", c.Tracking.MaxAccuracy)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("invalid cache capacity: %d", c.Cache.Capacity)
	}
	if c.Cache.Precision < 0 || c.Cache.Precision > maxPrecision {
		return fmt.Errorf("invalid cache precision: %d", c.Cache.Precision)
	}
	if _, err := c.ChangePriority(); err != nil {
		return fmt.Errorf("invalid change priority: %w", err)
	}
	if c.Speech.TTL <= 0 {
		return fmt.Errorf("invalid speech ttl: %s", c.Speech.TTL)
	}
	if c.Speech.Capacity < 1 {
		return fmt.Errorf("invalid speech queue capacity: %d", c.Speech.Capacity)
	}
	if c.Speech.Interval <= 0 {
		return fmt.Errorf("invalid speech interval: %s", c.Speech.Interval)
	}
	if c.Speech.Width < 0 {
		return fmt.Errorf("invalid speech output width: %d", c.Speech.Width)
	}
	if c.Intervals.Status <= 0 {
		return fmt.Errorf("invalid status interval: %s", c.Intervals.Status)
	}
	if c.GeoLocation.GeoLocationFile == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.GeoLocationFile = filepath.Join(home, ".config", "guia-turistico", "geolocation")
	}

	return nil
}

// ChangePriority returns the configured change detection priority.
func (c *Config) ChangePriority() ([]change.Field, error) {
	return change.ParsePriority(c.Change.Priority)
}

// SpeechPriorities returns the configured announcement priority per field.
func (c *Config) SpeechPriorities() map[change.Field]int {
	return map[change.Field]int{
		change.FieldMunicipio:  c.Speech.Priorities.Municipio,
		change.FieldBairro:     c.Speech.Priorities.Bairro,
		change.FieldLogradouro: c.Speech.Priorities.Logradouro,
	}
}

// FieldTemplates returns the configured announcement templates per field. Empty templates
// are left to the presenter defaults.
func (c *Config) FieldTemplates() map[change.Field]string {
	return map[change.Field]string{
		change.FieldMunicipio:  c.Templates.Municipio,
		change.FieldBairro:     c.Templates.Bairro,
		change.FieldLogradouro: c.Templates.Logradouro,
	}
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
