package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "snapcli/internal/errors"
	"snapcli/internal/temporal"
)

// EnvPrefix namespaces every environment override, e.g. SNAP_RUN_CONCURRENCY.
const EnvPrefix = "SNAP"

// Config represents the complete application configuration
type Config struct {
	Logging        LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Telemetry      TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
	Run            RunConfig         `yaml:"run" envconfig:"RUN"`
	Discovery      DiscoveryConfig   `yaml:"discovery" envconfig:"DISCOVERY"`
	Table          TableConfig       `yaml:"table" envconfig:"TABLE"`
	Clean          CleanConfig       `yaml:"clean" envconfig:"CLEAN"`
	SeriesRequests []SeriesRequest   `yaml:"series_requests" ignored:"true" validate:"dive"`
	Output         OutputConfig      `yaml:"output" envconfig:"OUTPUT"`
	Consolidate    ConsolidateConfig `yaml:"consolidate" envconfig:"CONSOLIDATE"`

	// File is the path the configuration was read from.
	File string `yaml:"-" ignored:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig selects metric and trace exporters
type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsExporter string  `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER" validate:"oneof=prometheus none"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRate      float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" validate:"gte=0,lte=1"`
	// MetricsAddr, when set, serves /metrics and /status during a run.
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`
	// StatusRPS and StatusBurst rate limit the status server.
	StatusRPS   float64 `yaml:"status_rps" envconfig:"STATUS_RPS" validate:"gt=0"`
	StatusBurst int     `yaml:"status_burst" envconfig:"STATUS_BURST" validate:"min=1"`
}

// RunConfig controls how groups are scheduled
type RunConfig struct {
	Concurrency int    `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
	Timezone    string `yaml:"timezone" envconfig:"TIMEZONE"`
}

// DiscoveryConfig locates group directories and their workbooks
type DiscoveryConfig struct {
	Paths                  []string `yaml:"paths" envconfig:"PATHS"`
	IgnoreFilenameContains []string `yaml:"ignore_filename_contains" envconfig:"IGNORE_FILENAME_CONTAINS"`
	FileExtensions         []string `yaml:"file_extensions" envconfig:"FILE_EXTENSIONS" validate:"min=1"`
}

// TableConfig drives column tagging, clustering and row handling
type TableConfig struct {
	IdentityColumns        []temporal.IdentityField `yaml:"identity_columns" ignored:"true" validate:"dive"`
	ClusterPriority        []string                 `yaml:"cluster_priority" envconfig:"CLUSTER_PRIORITY"`
	DuplicatePolicy        string                   `yaml:"duplicate_policy" envconfig:"DUPLICATE_POLICY" validate:"omitempty,oneof=keep_first keep_last keep_all"`
	DropRowsBlankInCluster bool                     `yaml:"drop_rows_blank_in_cluster" envconfig:"DROP_ROWS_BLANK_IN_CLUSTER"`
	BlankCluster           string                   `yaml:"blank_cluster" envconfig:"BLANK_CLUSTER"`
	RowSortKey             string                   `yaml:"row_sort_key" envconfig:"ROW_SORT_KEY"`
}

// CleanConfig describes the annotated table sheet
type CleanConfig struct {
	Enabled         bool     `yaml:"enabled" envconfig:"ENABLED"`
	SheetCandidates []string `yaml:"sheet_candidates" envconfig:"SHEET_CANDIDATES"`
	SheetContains   string   `yaml:"sheet_contains" envconfig:"SHEET_CONTAINS"`
	OutputSheet     string   `yaml:"output_sheet" envconfig:"OUTPUT_SHEET" validate:"required_if=Enabled true,max=31"`
}

// SeriesRequest asks for one chart (or one per metric with "*")
type SeriesRequest struct {
	Sheet       string `yaml:"sheet" validate:"required_without=SheetPrefix"`
	SheetPrefix string `yaml:"sheet_prefix"`
	XColumn     string `yaml:"x_column"`
	Metric      string `yaml:"metric" validate:"required"`
	SortX       string `yaml:"sort_x" validate:"omitempty,oneof=asc desc none"`
	ChartType   string `yaml:"chart_type" validate:"omitempty,oneof=column bar stacked_column line scatter"`
	Title       string `yaml:"title"`
	MinRows     int    `yaml:"min_rows" validate:"gte=0"`
}

// OutputConfig controls the generated report workbook
type OutputConfig struct {
	Directory       string `yaml:"directory" envconfig:"DIRECTORY"`
	FilenamePattern string `yaml:"filename_pattern" envconfig:"FILENAME_PATTERN" validate:"required,contains={group}"`
	StaleFillColor  string `yaml:"stale_fill_color" envconfig:"STALE_FILL_COLOR" validate:"hexadecimal,len=6"`
	ExportSeriesCSV bool   `yaml:"export_series_csv" envconfig:"EXPORT_SERIES_CSV"`
	CopyOriginals   bool   `yaml:"copy_originals" envconfig:"COPY_ORIGINALS"`
	RunLog          bool   `yaml:"run_log" envconfig:"RUN_LOG"`
}

// ConsolidateConfig drives the per-group merge of dated section files
type ConsolidateConfig struct {
	Groups             []ConsolidateGroup `yaml:"groups" ignored:"true" validate:"dive"`
	DateColumn         string             `yaml:"date_column" envconfig:"DATE_COLUMN" validate:"required"`
	IgnorePathContains []string           `yaml:"ignore_path_contains" envconfig:"IGNORE_PATH_CONTAINS"`
}

// ConsolidateGroup is one group's source and destination folders
type ConsolidateGroup struct {
	Name            string    `yaml:"name" validate:"required"`
	SourcePath      string    `yaml:"source_path" validate:"required"`
	DestinationPath string    `yaml:"destination_path" validate:"required"`
	Sections        []Section `yaml:"sections" validate:"required,dive"`
}

// Section is one section file merged across snapshot folders
type Section struct {
	File           string   `yaml:"file" validate:"required"`
	Sheet          string   `yaml:"sheet"`
	KeyColumns     []string `yaml:"key_columns" validate:"min=1"`
	CompareColumns []string `yaml:"compare_columns" validate:"min=1"`
}

// SheetName is the output sheet for the section: Sheet when set, else the
// file name without extension.
func (s Section) SheetName() string {
	if s.Sheet != "" {
		return s.Sheet
	}
	return strings.TrimSuffix(filepath.Base(s.File), filepath.Ext(s.File))
}

// Load reads the configuration file, applies environment overrides and
// validates the result. An empty path searches the default locations. A
// missing, unreadable or invalid configuration is a CONFIG error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getConfigFilePath()
		if path == "" {
			return nil, apperrors.NewConfigError("no configuration file found", nil).
				WithContext("searched", configLocations)
		}
	}

	cfg, err := loadFromFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load config from file", err).
			WithContext("path", path)
	}

	// Environment variables take precedence over the file
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file on the defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, err
	}
	cfg.File = filePath
	return cfg, nil
}

// Validate checks struct constraints and values that need parsing.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", describeValidation(err))
	}
	if _, err := c.Location(); err != nil {
		return apperrors.NewConfigError("invalid run.timezone", err).
			WithContext("timezone", c.Run.Timezone)
	}
	if _, err := temporal.ParseDuplicatePolicy(c.Table.DuplicatePolicy); err != nil {
		return apperrors.NewConfigError("invalid table.duplicate_policy", err)
	}
	return nil
}

func describeValidation(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// Location returns the configured timezone. Empty and "Local" mean the
// machine's local zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Run.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Run.Timezone)
	}
}

// Resolve interprets a relative path against the directory of the loaded
// configuration file.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.File == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.File), path)
}

// BaseDir is the directory relative paths resolve against.
func (c *Config) BaseDir() string {
	if c.File == "" {
		return ""
	}
	return filepath.Dir(c.File)
}

// TableOptions converts the table section into Build options.
func (c *Config) TableOptions() temporal.Options {
	policy, _ := temporal.ParseDuplicatePolicy(c.Table.DuplicatePolicy)
	return temporal.Options{
		Identity:     c.Table.IdentityColumns,
		Priority:     c.Table.ClusterPriority,
		Duplicates:   policy,
		DropBlank:    c.Table.DropRowsBlankInCluster,
		BlankCluster: c.Table.BlankCluster,
		SortKey:      c.Table.RowSortKey,
	}
}

var configLocations = []string{
	"snapcli.yaml",
	"config.yaml",
	"configs/snapcli.yaml",
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	for _, location := range configLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Output:   "console",
			FilePath: "logs/snapcli.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "snapcli",
			MetricsExporter: "prometheus",
			TraceExporter:   "none",
			SampleRate:      1.0,
			StatusRPS:       10,
			StatusBurst:     20,
		},
		Run: RunConfig{
			Concurrency: 4,
			Timezone:    "Local",
		},
		Discovery: DiscoveryConfig{
			IgnoreFilenameContains: []string{"_graph", "_graph_", "_Grph"},
			FileExtensions:         []string{".xlsx"},
		},
		Table: TableConfig{
			IdentityColumns: []temporal.IdentityField{
				{Name: "Oper", Aliases: []string{"Operator"}},
				{Name: "Vname", Aliases: []string{"V name", "Vendor Name"}},
			},
			ClusterPriority:        []string{"Login_Date", "LastWk"},
			DuplicatePolicy:        string(temporal.KeepFirst),
			DropRowsBlankInCluster: true,
			BlankCluster:           "Login_Date",
			RowSortKey:             "Oper",
		},
		Clean: CleanConfig{
			Enabled:         true,
			SheetCandidates: []string{"Section11"},
			SheetContains:   "section11",
			OutputSheet:     "Section11_clean",
		},
		Output: OutputConfig{
			FilenamePattern: "{group}_Src_{src_ts}__Grph_{run_ts}.xlsx",
			StaleFillColor:  "FFE699",
			CopyOriginals:   true,
			RunLog:          true,
		},
		Consolidate: ConsolidateConfig{
			DateColumn:         "Date_of_rep",
			IgnorePathContains: []string{"_del"},
		},
	}
}
