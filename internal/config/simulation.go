package config

import (
	"fmt"
	"time"
)

// Input modes. They match the conversation package's mode names.
const (
	ModeAutoAgent  = "auto_agent"
	ModeHumanAgent = "human_agent"
)

// MaxDelay bounds every configurable delay.
const MaxDelay = 10 * time.Second

// SimulationConfig configures call pacing.
type SimulationConfig struct {
	InitDelay      string `yaml:"init_delay"`       // fresh start until the system notice
	ResetInitDelay string `yaml:"reset_init_delay"` // reset until the system notice
	IntroDelay     string `yaml:"intro_delay"`      // system notice until the bot introduction
	ReplyDelayMin  string `yaml:"reply_delay_min"`  // inclusive
	ReplyDelayMax  string `yaml:"reply_delay_max"`  // exclusive
	Seed           uint64 `yaml:"seed"`             // 0 = seeded from the runtime
	Mode           string `yaml:"mode"`             // auto_agent, human_agent
}

// GetInitDelay returns the fresh-start delay.
func (s SimulationConfig) GetInitDelay() time.Duration {
	return parseDuration(s.InitDelay, 1500*time.Millisecond)
}

// GetResetInitDelay returns the post-reset delay.
func (s SimulationConfig) GetResetInitDelay() time.Duration {
	return parseDuration(s.ResetInitDelay, 1000*time.Millisecond)
}

// GetIntroDelay returns the delay between the system notice and the intro.
func (s SimulationConfig) GetIntroDelay() time.Duration {
	return parseDuration(s.IntroDelay, 1000*time.Millisecond)
}

// GetReplyDelayMin returns the lower bound of a typing delay.
func (s SimulationConfig) GetReplyDelayMin() time.Duration {
	return parseDuration(s.ReplyDelayMin, 1500*time.Millisecond)
}

// GetReplyDelayMax returns the upper bound of a typing delay.
func (s SimulationConfig) GetReplyDelayMax() time.Duration {
	return parseDuration(s.ReplyDelayMax, 2500*time.Millisecond)
}

// Validate checks every delay parses, lies within [0, MaxDelay] and that the
// reply window is non-empty.
func (s SimulationConfig) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"init_delay", s.InitDelay},
		{"reset_init_delay", s.ResetInitDelay},
		{"intro_delay", s.IntroDelay},
		{"reply_delay_min", s.ReplyDelayMin},
		{"reply_delay_max", s.ReplyDelayMax},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("invalid simulation.%s %q: %w", f.name, f.value, err)
		}
		if d < 0 || d > MaxDelay {
			return fmt.Errorf("simulation.%s %v out of range [0, %v]", f.name, d, MaxDelay)
		}
	}
	if s.GetReplyDelayMin() >= s.GetReplyDelayMax() {
		return fmt.Errorf("simulation.reply_delay_min (%v) must be below reply_delay_max (%v)",
			s.GetReplyDelayMin(), s.GetReplyDelayMax())
	}
	switch s.Mode {
	case "", ModeAutoAgent, ModeHumanAgent:
	default:
		return fmt.Errorf("invalid simulation.mode: %s (valid: %s, %s)", s.Mode, ModeAutoAgent, ModeHumanAgent)
	}
	return nil
}
