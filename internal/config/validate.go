package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFormat(); err != nil {
		return err
	}
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateInclusion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateMessages()
}

func (c *Config) validateMessages() error {
	for check, text := range c.Messages {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("messages.%s must not be empty", check)
		}
	}
	return nil
}

func (c *Config) validateFormat() error {
	if c.Format.SampleRate <= 0 {
		return errors.New("format.sample_rate must be positive")
	}
	switch c.Format.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("format.bit_depth must be 8, 16, 24 or 32 (got %d)", c.Format.BitDepth)
	}
	if c.Format.StemChannels <= 0 || c.Format.MixChannels <= 0 || c.Format.RawChannels <= 0 {
		return errors.New("format channel counts must be positive")
	}
	return nil
}

func (c *Config) validateSilence() error {
	if c.Silence.Threshold <= 0 || c.Silence.Threshold > 32767 {
		return errors.New("silence.threshold must be between 1 and 32767")
	}
	if c.Silence.FrameSeconds <= 0 {
		return errors.New("silence.frame_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.AnalysisRate <= 0 {
		return errors.New("alignment.analysis_rate must be positive")
	}
	if c.Alignment.AnalysisRate > c.Format.SampleRate {
		return fmt.Errorf("alignment.analysis_rate %d exceeds format.sample_rate %d", c.Alignment.AnalysisRate, c.Format.SampleRate)
	}
	if c.Alignment.WindowSeconds <= 0 {
		return errors.New("alignment.window_seconds must be positive")
	}
	if c.Alignment.ToleranceSamples < 0 {
		return errors.New("alignment.tolerance_samples must be >= 0")
	}
	if c.Alignment.MinOverlapRatio <= 0 || c.Alignment.MinOverlapRatio > 1 {
		return errors.New("alignment.min_overlap_ratio must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateInclusion() error {
	if c.Inclusion.WeightThreshold < 0 {
		return errors.New("inclusion.weight_threshold must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	return nil
}
