package validation

import (
	"multitrack/internal/analysis/alignment"
	"multitrack/internal/analysis/inclusion"
	"multitrack/internal/config"
	"multitrack/internal/media/probe"
)

// Settings is the immutable engine configuration.
type Settings struct {
	Format              probe.Format
	SilenceThreshold    int
	SilenceFrameSeconds float64
	Alignment           alignment.Options
	InclusionThreshold  float64
	Messages            Messages
	Workers             int
}

// DefaultSettings mirrors config.Default.
func DefaultSettings() Settings {
	return Settings{
		Format:              probe.DefaultFormat(),
		SilenceThreshold:    16,
		SilenceFrameSeconds: 1,
		Alignment:           alignment.DefaultOptions(),
		InclusionThreshold:  inclusion.DefaultThreshold,
		Messages:            DefaultMessages(),
		Workers:             1,
	}
}

// NewSettings builds engine settings from a loaded configuration.
func NewSettings(cfg *config.Config) Settings {
	if cfg == nil {
		return DefaultSettings()
	}
	// Unknown names are rejected by ParseMessages when the config is loaded.
	overrides, _ := messageOverrides(cfg.Messages)
	return Settings{
		Format: probe.Format{
			SampleRate:   cfg.Format.SampleRate,
			BitDepth:     cfg.Format.BitDepth,
			StemChannels: cfg.Format.StemChannels,
			MixChannels:  cfg.Format.MixChannels,
			RawChannels:  cfg.Format.RawChannels,
		},
		SilenceThreshold:    cfg.Silence.Threshold,
		SilenceFrameSeconds: cfg.Silence.FrameSeconds,
		Alignment: alignment.Options{
			AnalysisRate:    cfg.Alignment.AnalysisRate,
			WindowSeconds:   cfg.Alignment.WindowSeconds,
			Tolerance:       cfg.Alignment.ToleranceSamples,
			MinOverlapRatio: cfg.Alignment.MinOverlapRatio,
			TempDir:         cfg.Paths.TempDir,
		},
		InclusionThreshold: cfg.Inclusion.WeightThreshold,
		Messages:           NewMessages(overrides),
		Workers:            max(cfg.Engine.Workers, 1),
	}
}
