package domain

// JobStatus tracks each pipeline stage for a single conversion batch.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusResolving  JobStatus = "resolving"
	JobStatusConverting JobStatus = "converting"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	OutputDir   string `json:"outputDir" yaml:"output_dir"`
	FolderName  string `json:"folderName" yaml:"folder_name"`
	Workers     int    `json:"workers" yaml:"workers"`
	LogFile     string `json:"logFile,omitempty" yaml:"log_file,omitempty"`
	LogLevel    string `json:"logLevel,omitempty" yaml:"log_level,omitempty"`
	MetricsFile string `json:"metricsFile,omitempty" yaml:"metrics_file,omitempty"`
}

// Job stores the current batch identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

// ConversionJob pairs one resolved input with the WAV file it produces.
type ConversionJob struct {
	InputPath  string `json:"inputPath"`
	OutputPath string `json:"outputPath"`
}

// ConversionResult summarizes one successful batch.
type ConversionResult struct {
	FilesConverted int    `json:"files_converted"`
	DurationMs     int64  `json:"duration_ms"`
	OutputDir      string `json:"output_dir"`
}
