package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate performs struct-tag and business-rule validation on the loaded
// configuration. It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Storage.Driver == DriverPostgres && c.Storage.Database.DSN == "" {
		return fmt.Errorf("storage.database.dsn is required for the postgres driver")
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
	}

	if c.Speech.Provider == SpeechOpenAI && c.Speech.OpenAI.APIKey == "" {
		return fmt.Errorf("speech.openai.api_key is required for the openai provider")
	}

	if err := c.Session.validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	if c.Janitor.Enabled {
		if c.Janitor.Interval <= 0 {
			return fmt.Errorf("janitor.interval must be > 0 (got %s)", c.Janitor.Interval)
		}
		if c.Janitor.Retention <= 0 {
			return fmt.Errorf("janitor.retention must be > 0 (got %s)", c.Janitor.Retention)
		}
	}

	return nil
}

func (s *SessionConfig) validate() error {
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"tick_interval", s.TickInterval},
		{"settle_delay", s.SettleDelay},
		{"source_floor", s.SourceFloor},
		{"target_floor", s.TargetFloor},
		{"repeat_floor", s.RepeatFloor},
		{"progress_interval", s.ProgressInterval},
		{"speech_timeout", s.SpeechTimeout},
		{"persist_timeout", s.PersistTimeout},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be > 0", p.name)
		}
	}

	longest := max(s.SourceFloor, s.TargetFloor, s.RepeatFloor)
	if s.SpeechTimeout < longest {
		return fmt.Errorf("speech_timeout (%s) must not be shorter than the longest phase floor (%s)", s.SpeechTimeout, longest)
	}

	return nil
}
