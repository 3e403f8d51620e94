package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Interview holds the per-session tuning knobs.
type Interview struct {
	MaxQuestions    int           `yaml:"max_questions"`
	Deadline        time.Duration `yaml:"deadline"`
	CompletionGrace time.Duration `yaml:"completion_grace"`
	RetryBase       time.Duration `yaml:"retry_base"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	ModelScoring    bool          `yaml:"model_scoring"`
	FinalizeTimeout time.Duration `yaml:"finalize_timeout"`
	LatchTTL        time.Duration `yaml:"latch_ttl"`
}

func DefaultInterview() Interview {
	return Interview{
		MaxQuestions:    8,
		Deadline:        10 * time.Minute,
		CompletionGrace: time.Second,
		RetryBase:       time.Second,
		RetryAttempts:   3,
		ModelScoring:    false,
		FinalizeTimeout: 2 * time.Minute,
		LatchTTL:        24 * time.Hour,
	}
}

// LoadInterview applies INTERVIEW_CONFIG (yaml) and then INTERVIEW_* env vars over the defaults.
func LoadInterview() (Interview, error) {
	cfg := DefaultInterview()

	if path := strings.TrimSpace(os.Getenv("INTERVIEW_CONFIG")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyInterviewEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyInterviewEnv(cfg *Interview) error {
	ints := map[string]*int{
		"INTERVIEW_MAX_QUESTIONS":  &cfg.MaxQuestions,
		"INTERVIEW_RETRY_ATTEMPTS": &cfg.RetryAttempts,
	}
	for key, dst := range ints {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"INTERVIEW_DEADLINE":         &cfg.Deadline,
		"INTERVIEW_COMPLETION_GRACE": &cfg.CompletionGrace,
		"INTERVIEW_RETRY_BASE":       &cfg.RetryBase,
		"INTERVIEW_FINALIZE_TIMEOUT": &cfg.FinalizeTimeout,
		"INTERVIEW_LATCH_TTL":        &cfg.LatchTTL,
	}
	for key, dst := range durations {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := strings.TrimSpace(os.Getenv("INTERVIEW_MODEL_SCORING")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INTERVIEW_MODEL_SCORING: %w", err)
		}
		cfg.ModelScoring = b
	}
	return nil
}

func (c Interview) Validate() error {
	var errs []error
	if c.MaxQuestions <= 0 {
		errs = append(errs, errors.New("max_questions must be > 0"))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, errors.New("retry_attempts must be >= 1"))
	}
	for name, d := range map[string]time.Duration{
		"deadline":         c.Deadline,
		"completion_grace": c.CompletionGrace,
		"retry_base":       c.RetryBase,
		"finalize_timeout": c.FinalizeTimeout,
		"latch_ttl":        c.LatchTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	return errors.Join(errs...)
}
