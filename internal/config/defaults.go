package config

const (
	defaultCacheDir   = "~/.google-photos-sync"
	defaultLibraryDir = "~/Pictures/Photos Library.photoslibrary"
	defaultLogDir     = "~/.google-photos-sync/logs"

	defaultAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
	defaultAPIBaseURL = "https://photoslibrary.googleapis.com/v1"
	defaultScope      = "https://www.googleapis.com/auth/photoslibrary.readonly"

	defaultFetchSize    = 50
	defaultMaxRetries   = 3
	defaultMaxDownloads = -1

	defaultPollInterval   = 5
	defaultImportTimeout  = 600
	defaultListTimeout    = 600
	defaultRequestTimeout = 60
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:   defaultCacheDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Google: Google{
			AuthURL:    defaultAuthURL,
			TokenURL:   defaultTokenURL,
			APIBaseURL: defaultAPIBaseURL,
			Scopes:     []string{defaultScope},
		},
		Sync: Sync{
			FetchSize:    defaultFetchSize,
			MaxRetries:   defaultMaxRetries,
			MaxDownloads: defaultMaxDownloads,
		},
		Workflow: Workflow{
			PollInterval:         defaultPollInterval,
			ImportTimeout:        defaultImportTimeout,
			ListTimeout:          defaultListTimeout,
			RequestTimeoutSecond: defaultRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
