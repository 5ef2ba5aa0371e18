package config

import "runtime"

const (
	defaultStateDir         = "~/.local/share/multitrack"
	defaultLogDir           = "~/.local/share/multitrack/logs"
	defaultReviewDir        = "~/.local/share/multitrack/review"
	defaultSampleRate       = 44100
	defaultBitDepth         = 16
	defaultStemChannels     = 2
	defaultMixChannels      = 2
	defaultRawChannels      = 1
	defaultSilenceThreshold = 16
	defaultFrameSeconds     = 1.0
	defaultAnalysisRate     = 1000
	defaultWindowSeconds    = 30.0
	defaultToleranceSamples = 5
	defaultMinOverlapRatio  = 0.5
	defaultWeightThreshold  = 0.01
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			ReviewDir: defaultReviewDir,
		},
		Format: Format{
			SampleRate:   defaultSampleRate,
			BitDepth:     defaultBitDepth,
			StemChannels: defaultStemChannels,
			MixChannels:  defaultMixChannels,
			RawChannels:  defaultRawChannels,
		},
		Silence: Silence{
			Threshold:    defaultSilenceThreshold,
			FrameSeconds: defaultFrameSeconds,
		},
		Alignment: Alignment{
			AnalysisRate:     defaultAnalysisRate,
			WindowSeconds:    defaultWindowSeconds,
			ToleranceSamples: defaultToleranceSamples,
			MinOverlapRatio:  defaultMinOverlapRatio,
		},
		Inclusion: Inclusion{
			WeightThreshold: defaultWeightThreshold,
		},
		Engine: Engine{
			Workers:  defaultWorkers(),
			Progress: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}
