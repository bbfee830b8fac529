// Package projectconfig provides the ProjectConfig struct and loader for
// .pitchperfect.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file looked up by Load.
const ConfigFileName = ".pitchperfect.yaml"

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultDataDir = ".data"

	DefaultModel          = "gemini-2.0-flash"
	DefaultModelTimeout   = 60
	DefaultSpeechModel    = "scribe_v2"
	DefaultSpeechTimeout  = 120
	DefaultMaxInFlight    = 4
	DefaultRetryAttempts  = 5
	DefaultServerHost     = "127.0.0.1"
	DefaultServerPort     = 8000
	DefaultAllowedOrigins = "*"
)

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host           string   `yaml:"host,omitempty"`
	Port           int      `yaml:"port,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// ModelConfig holds primary generative model settings. Credentials never
// live here; they come from the environment.
type ModelConfig struct {
	Name     string `yaml:"name,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty"`
}

// SpeechConfig holds secondary speech provider settings.
type SpeechConfig struct {
	Model    string `yaml:"model,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty"`
}

// StorageConfig holds job store settings.
type StorageConfig struct {
	DataDir string `yaml:"data_dir,omitempty"`
}

// WorkflowConfig holds scheduler settings.
type WorkflowConfig struct {
	MaxInFlight   int `yaml:"max_in_flight,omitempty"`
	RetryAttempts int `yaml:"retry_attempts,omitempty"`
}

// VoicesConfig holds the optional persona voice ids used for narration
// playback.
type VoicesConfig struct {
	Encouraging string `yaml:"encouraging,omitempty"`
	Harsh       string `yaml:"harsh,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .pitchperfect.yaml.
type ProjectConfig struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Model    ModelConfig    `yaml:"model,omitempty"`
	Speech   SpeechConfig   `yaml:"speech,omitempty"`
	Storage  StorageConfig  `yaml:"storage,omitempty"`
	Workflow WorkflowConfig `yaml:"workflow,omitempty"`
	Voices   VoicesConfig   `yaml:"voices,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Server: ServerConfig{
			Host:           DefaultServerHost,
			Port:           DefaultServerPort,
			AllowedOrigins: []string{DefaultAllowedOrigins},
		},
		Model: ModelConfig{
			Name:    DefaultModel,
			Timeout: DefaultModelTimeout,
		},
		Speech: SpeechConfig{
			Model:   DefaultSpeechModel,
			Timeout: DefaultSpeechTimeout,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
		},
		Workflow: WorkflowConfig{
			MaxInFlight:   DefaultMaxInFlight,
			RetryAttempts: DefaultRetryAttempts,
		},
	}
}

// Load finds .pitchperfect.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .pitchperfect.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Server
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.AllowedOrigins != nil {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	// Model
	if src.Model.Name != "" {
		dst.Model.Name = src.Model.Name
	}
	if src.Model.Endpoint != "" {
		dst.Model.Endpoint = src.Model.Endpoint
	}
	if src.Model.Timeout != 0 {
		dst.Model.Timeout = src.Model.Timeout
	}

	// Speech
	if src.Speech.Model != "" {
		dst.Speech.Model = src.Speech.Model
	}
	if src.Speech.Endpoint != "" {
		dst.Speech.Endpoint = src.Speech.Endpoint
	}
	if src.Speech.Timeout != 0 {
		dst.Speech.Timeout = src.Speech.Timeout
	}

	// Storage
	if src.Storage.DataDir != "" {
		dst.Storage.DataDir = src.Storage.DataDir
	}

	// Workflow
	if src.Workflow.MaxInFlight != 0 {
		dst.Workflow.MaxInFlight = src.Workflow.MaxInFlight
	}
	if src.Workflow.RetryAttempts != 0 {
		dst.Workflow.RetryAttempts = src.Workflow.RetryAttempts
	}

	// Voices
	if src.Voices.Encouraging != "" {
		dst.Voices.Encouraging = src.Voices.Encouraging
	}
	if src.Voices.Harsh != "" {
		dst.Voices.Harsh = src.Voices.Harsh
	}
}
