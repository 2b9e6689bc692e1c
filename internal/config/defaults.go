package config

const (
	defaultProjectDir          = "~/.local/share/reelforge/project"
	defaultLogDir              = "~/.local/share/reelforge/logs"
	defaultOfflineAvailability = "partial"
	defaultMetadataFormat      = "json"
	defaultCodeOutputDir       = "dist"
	defaultPlayerScheme        = "reelforge"
	defaultPreviewHost         = "localhost"
	defaultPreviewProtocol     = "http"
	defaultPreviewPort         = 9999
	defaultLivePreviewHost     = "localhost"
	defaultLivePreviewProtocol = "http"
	defaultLivePreviewPort     = 5173
	defaultStorageTimeout      = 30
	defaultFFprobeBinary       = "ffprobe"
	defaultImportWorkers       = 4
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectDir: defaultProjectDir,
			LogDir:     defaultLogDir,
		},
		Publish: Publish{
			OfflineAvailability: defaultOfflineAvailability,
			MetadataFormat:      defaultMetadataFormat,
			CodeOutputDir:       defaultCodeOutputDir,
		},
		Profiles: Profiles{
			PlayerScheme:        defaultPlayerScheme,
			PreviewHost:         defaultPreviewHost,
			PreviewProtocol:     defaultPreviewProtocol,
			PreviewPort:         defaultPreviewPort,
			LivePreviewHost:     defaultLivePreviewHost,
			LivePreviewProtocol: defaultLivePreviewProtocol,
			LivePreviewPort:     defaultLivePreviewPort,
		},
		RemoteStorage: RemoteStorage{
			TimeoutSeconds: defaultStorageTimeout,
		},
		PostProcess: PostProcess{
			Probe:         true,
			AV1:           false,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Workers: Workers{
			Import: defaultImportWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
