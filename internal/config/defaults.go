package config

const (
	defaultStagingDir        = "~/.local/share/echonexus/staging"
	defaultProcessedDir      = "~/.local/share/echonexus/processed"
	defaultQuarantineDir     = "~/.local/share/echonexus/quarantine"
	defaultLogDir            = "~/.local/share/echonexus/logs"
	defaultAPIBind           = "127.0.0.1:7517"
	defaultContractDir       = "contracts"
	defaultInvoiceDir        = "invoices"
	defaultResearchPaperDir  = "papers"
	defaultWorkers           = 4
	defaultQueueCapacity     = 64
	defaultModuleLatencyMS   = 100
	defaultPriorityLatencyMS = 10
	defaultAmplifierDepth    = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:    defaultStagingDir,
			ProcessedDir:  defaultProcessedDir,
			QuarantineDir: defaultQuarantineDir,
			LogDir:        defaultLogDir,
			APIBind:       defaultAPIBind,
		},
		Destinations: Destinations{
			Contract:      defaultContractDir,
			Invoice:       defaultInvoiceDir,
			ResearchPaper: defaultResearchPaperDir,
		},
		Workflow: Workflow{
			Workers:           defaultWorkers,
			QueueCapacity:     defaultQueueCapacity,
			ModuleLatencyMS:   defaultModuleLatencyMS,
			PriorityLatencyMS: defaultPriorityLatencyMS,
		},
		Creative: Creative{
			AmplifierDepth: defaultAmplifierDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
