package config

import (
	"fmt"
	"time"
)

// SkillConfig controls how incoming platform requests are verified.
type SkillConfig struct {
	// ApplicationIDs restricts requests to these skill ids; empty accepts any.
	ApplicationIDs     []string      `env:"ALEXA_SKILL_IDS" yaml:"application_ids"`
	VerifySignature    bool          `env:"ALEXA_VERIFY_SIGNATURE" yaml:"verify_signature" default:"false"`
	VerifyTimestamp    bool          `env:"ALEXA_VERIFY_TIMESTAMP" yaml:"verify_timestamp" default:"false"`
	TimestampTolerance time.Duration `env:"ALEXA_TIMESTAMP_TOLERANCE" yaml:"timestamp_tolerance" default:"150s"`
}

func (s SkillConfig) Validate() error {
	if s.VerifyTimestamp && s.TimestampTolerance <= 0 {
		return fmt.Errorf("timestamp_tolerance must be greater than 0 when timestamp verification is enabled")
	}
	return nil
}
