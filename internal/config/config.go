// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is loaded from a JSON or YAML file. Every field is optional;
// Defaults supplies the rest and CLI flags override both.
type Config struct {
	// Paths
	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty"` // Directory holding snapshots and merged documents
	UploadDir   string `json:"upload_dir,omitempty" yaml:"upload_dir,omitempty"`
	DownloadDir string `json:"download_dir,omitempty" yaml:"download_dir,omitempty"` // Rendered PDFs served by the web app
	Template    string `json:"template,omitempty" yaml:"template,omitempty"`         // HTML template; empty uses the built-in one
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`             // Default render output file

	// Services
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`     // Overrides the standard-tier model
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"omitempty,url"`
	ChromePath  string `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`

	Merge     MergeConfig     `json:"merge" yaml:"merge"`
	Upload    UploadConfig    `json:"upload" yaml:"upload"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Render    RenderConfig    `json:"render" yaml:"render"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// MergeConfig configures the merge engine.
type MergeConfig struct {
	Mode                  string `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=llm local"`
	ServiceTimeoutSeconds int    `json:"service_timeout_seconds,omitempty" yaml:"service_timeout_seconds,omitempty" validate:"gte=0"`
}

// UploadConfig configures document uploads.
type UploadConfig struct {
	AllowedExtensions []string `json:"allowed_extensions,omitempty" yaml:"allowed_extensions,omitempty" validate:"dive,required"`
	MaxSizeMB         int      `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" validate:"gte=0"`
}

// ServerConfig configures the web app.
type ServerConfig struct {
	Port int `json:"port,omitempty" yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	// ClearOnStart empties the upload and download folders at startup; nil means true.
	ClearOnStart *bool `json:"clear_on_start,omitempty" yaml:"clear_on_start,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// RenderConfig configures PDF export.
type RenderConfig struct {
	MaxPages int `json:"max_pages,omitempty" yaml:"max_pages,omitempty" validate:"gte=0"`
}

// AssistantConfig configures chat sessions.
type AssistantConfig struct {
	InlineLimitMB int `json:"inline_limit_mb,omitempty" yaml:"inline_limit_mb,omitempty" validate:"gte=0"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	clearOnStart := true
	return Config{
		SnapshotDir: ".",
		UploadDir:   "uploads",
		DownloadDir: "downloads",
		Output:      "my_final_resume.pdf",
		Merge:       MergeConfig{Mode: "llm", ServiceTimeoutSeconds: 60},
		Upload:      UploadConfig{AllowedExtensions: []string{"pdf", "doc", "docx"}, MaxSizeMB: 16},
		Server:      ServerConfig{Port: 5000, ClearOnStart: &clearOnStart},
		Log:         LogConfig{Level: "info", Format: "text"},
		Render:      RenderConfig{MaxPages: 2},
		Assistant:   AssistantConfig{InlineLimitMB: 20},
	}
}

// LoadConfig loads configuration from a file. Files ending in .yaml or .yml are
// parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and that a configured template exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: %s failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}
	return nil
}

// MergeWithDefaults returns a copy of c with unset fields taken from defaults.
// Booleans other than ClearOnStart cannot be told apart from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	str := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	num := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}

	str(&result.SnapshotDir, defaults.SnapshotDir)
	str(&result.UploadDir, defaults.UploadDir)
	str(&result.DownloadDir, defaults.DownloadDir)
	str(&result.Template, defaults.Template)
	str(&result.Output, defaults.Output)
	str(&result.APIKey, defaults.APIKey)
	str(&result.Model, defaults.Model)
	str(&result.DatabaseURL, defaults.DatabaseURL)
	str(&result.ChromePath, defaults.ChromePath)
	str(&result.Merge.Mode, defaults.Merge.Mode)
	str(&result.Log.Level, defaults.Log.Level)
	str(&result.Log.Format, defaults.Log.Format)

	num(&result.Merge.ServiceTimeoutSeconds, defaults.Merge.ServiceTimeoutSeconds)
	num(&result.Upload.MaxSizeMB, defaults.Upload.MaxSizeMB)
	num(&result.Server.Port, defaults.Server.Port)
	num(&result.Render.MaxPages, defaults.Render.MaxPages)
	num(&result.Assistant.InlineLimitMB, defaults.Assistant.InlineLimitMB)

	if len(result.Upload.AllowedExtensions) == 0 {
		result.Upload.AllowedExtensions = append([]string(nil), defaults.Upload.AllowedExtensions...)
	}
	if result.Server.ClearOnStart == nil {
		result.Server.ClearOnStart = defaults.Server.ClearOnStart
	}
	return result
}

// ApplyEnv fills secrets and machine-specific paths from the environment when
// the file leaves them empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.APIKey == "" {
		c.APIKey = getenv("GEMINI_API_KEY")
	}
	if c.APIKey == "" {
		c.APIKey = getenv("GOOGLE_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.ChromePath == "" {
		c.ChromePath = getenv("CHROME_PATH")
	}
}

// MergeTimeout returns the service timeout as a duration.
func (c *Config) MergeTimeout() time.Duration {
	return time.Duration(c.Merge.ServiceTimeoutSeconds) * time.Second
}

// UploadLimitBytes returns the upload size limit in bytes; zero means unlimited.
func (c *Config) UploadLimitBytes() int64 {
	return int64(c.Upload.MaxSizeMB) << 20
}

// InlineLimitBytes returns the inline document limit in bytes.
func (c *Config) InlineLimitBytes() int64 {
	return int64(c.Assistant.InlineLimitMB) << 20
}

// ClearOnStart reports whether upload and download folders are emptied at startup.
func (c *Config) ClearOnStart() bool {
	return c.Server.ClearOnStart == nil || *c.Server.ClearOnStart
}

// AllowedExtension reports whether a file name has an allowed upload extension.
func (c *Config) AllowedExtension(fileName string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.Upload.AllowedExtensions {
		if strings.TrimPrefix(strings.ToLower(allowed), ".") == ext {
			return true
		}
	}
	return false
}
