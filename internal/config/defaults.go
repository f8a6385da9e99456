package config

const (
	defaultLibraryDir             = "~/.local/share/lectern/library"
	defaultCacheDir               = "~/.cache/lectern"
	defaultLogDir                 = "~/.local/share/lectern/logs"
	defaultAPIBind                = "127.0.0.1:7823"
	defaultModel                  = "ggml-base.en.bin"
	defaultLanguage               = "auto"
	defaultBackend                = "auto"
	defaultRegistryURL            = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"
	defaultDownloadTimeout        = 600
	defaultSyntheticSentenceSecs  = 5.0
	defaultMatchThreshold         = 0.7
	defaultSyntheticConfidence    = 0.3
	defaultInterpolatedConfidence = 0.5
	defaultMinTextChars           = 100
	defaultQueuePollInterval      = 2
	defaultErrorRetryInterval     = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			CacheDir:   defaultCacheDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Engine: Engine{
			Model:                    defaultModel,
			Language:                 defaultLanguage,
			Backend:                  defaultBackend,
			RegistryURL:              defaultRegistryURL,
			DownloadTimeout:          defaultDownloadTimeout,
			SyntheticSentenceSeconds: defaultSyntheticSentenceSecs,
		},
		Alignment: Alignment{
			MatchThreshold:         defaultMatchThreshold,
			SyntheticConfidence:    defaultSyntheticConfidence,
			InterpolatedConfidence: defaultInterpolatedConfidence,
		},
		Extraction: Extraction{
			MinTextChars: defaultMinTextChars,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
