package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/pdf-agent/constants"
)

// DefaultConfigPath is used when neither --config nor PDF_AGENT_CONFIG is set.
const DefaultConfigPath = "config/config.yaml"

// Config holds all application configuration
type Config struct {
	InputFolder  string `yaml:"input_folder"`
	OutputFolder string `yaml:"output_folder"`
	ReportFolder string `yaml:"report_folder"`
	LogFolder    string `yaml:"log_folder"`

	DefaultNaming     string   `yaml:"default_naming"`
	DateFormat        string   `yaml:"date_format"`
	Language          string   `yaml:"language"`
	LabelThreshold    float64  `yaml:"label_threshold"`
	Labels            []string `yaml:"labels"`
	DocumentTypesList []string `yaml:"document_types_list"`

	LLMEnabled bool          `yaml:"llm_enabled"`
	LLMModel   string        `yaml:"llm_model"`
	LLMURL     string        `yaml:"llm_url"`
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Extraction ExtractionConfig `yaml:"extraction"`
	Watch      WatchConfig      `yaml:"watch"`
	Report     ReportConfig     `yaml:"report"`
	Server     ServerConfig     `yaml:"server"`

	DocumentTypes DocumentTypeTable `yaml:"document_types"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

// ExtractionConfig holds text-extraction configuration
type ExtractionConfig struct {
	Backends    []string `yaml:"backends"`
	OCRLang     string   `yaml:"ocr_lang"`
	DPI         int      `yaml:"dpi"`
	MaxPages    int      `yaml:"max_pages"`
	Pdftotext   string   `yaml:"pdftotext"`
	Pdftoppm    string   `yaml:"pdftoppm"`
	Tesseract   string   `yaml:"tesseract"`
	TessdataDir string   `yaml:"tessdata_dir"`
}

// WatchConfig holds watch-mode configuration
type WatchConfig struct {
	SettleInterval time.Duration `yaml:"settle_interval"`
	SettleAttempts int           `yaml:"settle_attempts"`
}

// ReportConfig holds report-related configuration
type ReportConfig struct {
	Formats  []string `yaml:"formats"`
	Database string   `yaml:"database"`
}

// ServerConfig holds the optional watch-mode listeners
type ServerConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	HealthAddr  string `yaml:"health_addr"`
}

// TemplateOverride replaces a document type's folder and/or naming template.
// Nil fields leave the inherited template in place.
type TemplateOverride struct {
	Folder *string `yaml:"folder"`
	Naming *string `yaml:"naming"`
}

// LabelOverride is one entry of a document type's label_overrides mapping.
type LabelOverride struct {
	Key string
	TemplateOverride
}

// DocumentTypeConfig is the naming configuration for one document type.
type DocumentTypeConfig struct {
	Name           string            `yaml:"-"`
	Folder         *string           `yaml:"folder"`
	Naming         *string           `yaml:"naming"`
	LabelOverrides LabelOverrideList `yaml:"label_overrides"`
}

// DocumentTypeTable keeps document types in declaration order.
type DocumentTypeTable []DocumentTypeConfig

// LabelOverrideList keeps label overrides in declaration order.
type LabelOverrideList []LabelOverride

// UnmarshalYAML walks the mapping node directly so declaration order survives decoding.
func (t *DocumentTypeTable) UnmarshalYAML(value *yaml.Node) error {
	return decodeOrderedMapping(value, "document_types", func(key string, node *yaml.Node) error {
		var dt DocumentTypeConfig
		if err := node.Decode(&dt); err != nil {
			return fmt.Errorf("document_types.%s: %w", key, err)
		}
		dt.Name = key
		*t = append(*t, dt)
		return nil
	})
}

func (l *LabelOverrideList) UnmarshalYAML(value *yaml.Node) error {
	return decodeOrderedMapping(value, "label_overrides", func(key string, node *yaml.Node) error {
		var o TemplateOverride
		if err := node.Decode(&o); err != nil {
			return fmt.Errorf("label_overrides.%s: %w", key, err)
		}
		*l = append(*l, LabelOverride{Key: key, TemplateOverride: o})
		return nil
	})
}

func decodeOrderedMapping(value *yaml.Node, what string, each func(key string, node *yaml.Node) error) error {
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: expected a mapping (line %d)", what, value.Line)
	}
	seen := make(map[string]struct{}, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: duplicate key %q (line %d)", what, key, value.Content[i].Line)
		}
		seen[key] = struct{}{}
		if err := each(key, value.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the configuration for a document type by exact name.
func (t DocumentTypeTable) Lookup(name string) (DocumentTypeConfig, bool) {
	for _, dt := range t {
		if dt.Name == name {
			return dt, true
		}
	}
	return DocumentTypeConfig{}, false
}

// Names returns the configured document type names in declaration order.
func (t DocumentTypeTable) Names() []string {
	out := make([]string, 0, len(t))
	for _, dt := range t {
		out = append(out, dt.Name)
	}
	return out
}

// DefaultConfig returns a Config populated with every optional default.
// Required folders stay empty so validation can report them.
func DefaultConfig() *Config {
	return &Config{
		LogFolder:         "logs",
		DefaultNaming:     constants.DefaultNamingTemplate,
		DateFormat:        constants.DefaultDateFormat,
		Language:          "de",
		LabelThreshold:    constants.DefaultLabelThreshold,
		DocumentTypesList: constants.DefaultDocumentTypes(),
		LLMModel:          "gemma3n",
		LLMURL:            "http://localhost:11434/api/generate",
		LLMTimeout:        60 * time.Second,
		LogLevel:          "info",
		LogFormat:         "auto",
		Extraction: ExtractionConfig{
			Backends:  append([]string(nil), constants.DefaultBackends...),
			OCRLang:   "deu+eng",
			DPI:       300,
			Pdftotext: "pdftotext",
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
		},
		Watch: WatchConfig{
			SettleInterval: 500 * time.Millisecond,
			SettleAttempts: 20,
		},
		Report: ReportConfig{
			Formats: []string{"csv"},
		},
	}
}

// ResolveConfigPath picks the config file: explicit flag, then PDF_AGENT_CONFIG, then the default.
func ResolveConfigPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return getEnv("PDF_AGENT_CONFIG", DefaultConfigPath)
}

// LoadConfig reads the YAML file at path, applies defaults and environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ConfigError(fmt.Sprintf("config file not found: %s", path), err)
		}
		return nil, ConfigError(fmt.Sprintf("read config %s", path), err)
	}
	return ParseConfig(raw, path)
}

// ParseConfig decodes raw YAML; path is only recorded for diagnostics.
func ParseConfig(raw []byte, path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, ConfigError(fmt.Sprintf("parse config %s", path), err)
	}
	cfg.Path = path
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LLMURL = getEnv("OLLAMA_URL", c.LLMURL)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMTimeout = getEnvAsDuration("LLM_TIMEOUT", c.LLMTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Extraction.TessdataDir = getEnv("TESSDATA_PREFIX", c.Extraction.TessdataDir)
	c.Extraction.DPI = getEnvAsInt("OCR_DPI", c.Extraction.DPI)
	c.Report.Database = getEnv("REPORT_DB_URL", c.Report.Database)
	c.LabelThreshold = getEnvAsFloat64("LABEL_THRESHOLD", c.LabelThreshold)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("input_folder", c.InputFolder, Required).
		Field("output_folder", c.OutputFolder, Required).
		Field("report_folder", c.ReportFolder, Required).
		Field("default_naming", c.DefaultNaming, Required).
		Field("date_format", c.DateFormat, Required).
		Field("label_threshold", c.LabelThreshold, InRange(0, 1)).
		Field("log_format", c.LogFormat, OneOf("auto", "json", "text")).
		Field("extraction.backends", c.Extraction.Backends, OneOf(constants.KnownBackends...)).
		Field("extraction.dpi", c.Extraction.DPI, Positive).
		Field("report.formats", c.Report.Formats, OneOf("csv", "xlsx"))
	if len(c.Extraction.Backends) == 0 {
		v.Field("extraction.backends", "", Required)
	}
	if c.LLMEnabled {
		v.Field("llm_url", c.LLMURL, Required).Field("llm_model", c.LLMModel, Required)
	}
	if v.HasErrors() {
		return ConfigError("invalid configuration", v.Error())
	}
	return nil
}

// EnsureDirs creates the input, output, report and log folders.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.InputFolder, c.OutputFolder, c.ReportFolder, c.LogFolder} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ConfigError(fmt.Sprintf("create folder %s", dir), err)
		}
	}
	return nil
}

// LogFile is where the file log sink writes.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogFolder, "agent.log")
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
