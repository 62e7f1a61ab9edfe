package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFile is the agent configuration file created by Initialize.
const DefaultFile = "config.json"

// File is the JSON agent configuration. Non-empty fields override the
// environment when applied to a Config.
type File struct {
	Model           string   `json:"model"`
	Temperature     float64  `json:"temperature"`
	SystemPrompt    string   `json:"system_prompt,omitempty"`
	Tools           []string `json:"tools"`
	ThreadID        string   `json:"thread_id"`
	CheckpointStore string   `json:"checkpoint_store"`
	CheckpointDSN   string   `json:"checkpoint_dsn,omitempty"`
	LogLevel        string   `json:"log_level"`
}

// DefaultFileConfig returns the settings written by Initialize.
func DefaultFileConfig() *File {
	return &File{
		Model:           DefaultModel,
		Temperature:     0.7,
		Tools:           []string{"read_file", "list_files", "get_merge_diff"},
		ThreadID:        DefaultThreadID,
		CheckpointStore: "memory",
		LogLevel:        "info",
	}
}

// Load reads a configuration file.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &f, nil
}

// Save writes f as indented JSON, creating parent directories.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Initialize loads path, writing the defaults first when it is missing.
// created reports whether the file was written.
func Initialize(path string) (f *File, created bool, err error) {
	if path == "" {
		path = DefaultFile
	}
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = Load(path)
		return f, false, err
	}
	f = DefaultFileConfig()
	if err := f.Save(path); err != nil {
		return nil, false, fmt.Errorf("failed to save default config: %w", err)
	}
	return f, true, nil
}

func (f *File) Validate() error {
	if f.Temperature < 0 || f.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", f.Temperature)
	}
	switch f.CheckpointStore {
	case "", "memory", "file", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unknown checkpoint store %q", f.CheckpointStore)
	}
	return nil
}

// Apply copies the non-empty settings of f into cfg.
func (f *File) Apply(cfg *Config) {
	if f.Model != "" {
		cfg.OpenAI.Model = f.Model
	}
	if f.Temperature != 0 {
		cfg.OpenAI.Temperature = f.Temperature
	}
	if f.ThreadID != "" {
		cfg.ThreadID = f.ThreadID
	}
	if f.CheckpointStore != "" {
		cfg.Checkpoint.Kind = f.CheckpointStore
	}
	if f.CheckpointDSN != "" {
		cfg.Checkpoint.DSN = f.CheckpointDSN
	}
}
