package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TutorConfig is the tutoring policy: celebration tokens, reply pacing and
// session lifetime. It comes from an optional YAML file with TUTOR_*
// environment overrides, e.g. TUTOR_REPLY_DELAY_MAX=2s.
type TutorConfig struct {
	Feedback FeedbackPolicy `mapstructure:"feedback"`
	Reply    ReplyPolicy    `mapstructure:"reply"`
	Session  SessionPolicy  `mapstructure:"session"`
}

type FeedbackPolicy struct {
	Pool []string      `mapstructure:"pool"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type ReplyPolicy struct {
	DelayMin time.Duration `mapstructure:"delay_min"`
	DelayMax time.Duration `mapstructure:"delay_max"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SessionPolicy struct {
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	ReapSchedule string        `mapstructure:"reap_schedule"`
}

func setTutorDefaults(v *viper.Viper) {
	v.SetDefault("feedback.pool", []string{"⭐", "🌟", "💫", "✨", "🎉", "👏", "🤗", "💖"})
	v.SetDefault("feedback.ttl", 3*time.Second)
	v.SetDefault("reply.delay_min", time.Second)
	v.SetDefault("reply.delay_max", 3*time.Second)
	v.SetDefault("reply.timeout", 30*time.Second)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.reap_schedule", "@every 1m")
}

// LoadTutorConfig reads path when set, applies TUTOR_* overrides and checks
// the result.
func LoadTutorConfig(path string) (TutorConfig, error) {
	v := viper.New()
	setTutorDefaults(v)

	v.SetEnvPrefix("TUTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return TutorConfig{}, fmt.Errorf("failed to read tutor config %s: %w", path, err)
		}
	}

	var cfg TutorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return TutorConfig{}, fmt.Errorf("failed to unmarshal tutor config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return TutorConfig{}, err
	}
	return cfg, nil
}

// Validate rejects policies the session core cannot run with.
func (c TutorConfig) Validate() error {
	tokens := 0
	for _, token := range c.Feedback.Pool {
		if strings.TrimSpace(token) != "" {
			tokens++
		}
	}
	if tokens == 0 {
		return fmt.Errorf("feedback.pool must list at least one token")
	}
	if c.Feedback.TTL <= 0 {
		return fmt.Errorf("feedback.ttl must be positive, got %s", c.Feedback.TTL)
	}
	if c.Reply.DelayMin < 0 || c.Reply.DelayMax < c.Reply.DelayMin {
		return fmt.Errorf("reply delay range [%s, %s] is invalid", c.Reply.DelayMin, c.Reply.DelayMax)
	}
	if c.Reply.Timeout < 0 {
		return fmt.Errorf("reply.timeout must not be negative, got %s", c.Reply.Timeout)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session.idle_ttl must be positive, got %s", c.Session.IdleTTL)
	}
	if strings.TrimSpace(c.Session.ReapSchedule) == "" {
		return fmt.Errorf("session.reap_schedule is required")
	}
	return nil
}
