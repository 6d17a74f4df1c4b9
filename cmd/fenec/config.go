// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	fenecerrors "github.com/kraklabs/fenec/internal/errors"
)

const (
	defaultConfigDir  = ".fenec"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .fenec/project.yaml configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	ProjectID string          `yaml:"project_id"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Indexing  IndexingConfig  `yaml:"indexing"`
}

// StoreConfig selects and configures the graph/vector store backends.
type StoreConfig struct {
	Backend    string `yaml:"backend"`     // "mem" or "cozo"
	DataDir    string `yaml:"data_dir"`    // CozoDB data directory, ignored for "mem"
	VectorDims int    `yaml:"vector_dims"` // embedding dimensionality, for the CozoDB HNSW index
	OutputDir  string `yaml:"output_dir"`  // on-disk JSON export root
}

// LLMConfig configures the outbound summarization/embedding client.
type LLMConfig struct {
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	APIKey          string  `yaml:"api_key,omitempty"`
	EmbeddingModel  string  `yaml:"embedding_model"`
	PromptPrice     float64 `yaml:"prompt_token_price,omitempty"`
	CompletionPrice float64 `yaml:"completion_token_price,omitempty"`
}

// SummarizeConfig tunes the summarization engine's concurrency and pass
// count
type SummarizeConfig struct {
	NumPasses    int `yaml:"num_passes"`    // 1 or 3
	Workers      int `yaml:"workers"`       // entities summarized concurrently per rank
	WriteRetries int `yaml:"write_retries"` // bounded backoff retries on a failed summary write
}

// IndexingConfig selects the parser frontend and carries the exclude globs
// and file-size limits handed to it.
type IndexingConfig struct {
	// ParserCommand is the external parser frontend invoked as
	// `<command...> <root_dir>`; it must write the parse-result wire JSON
	// to stdout.
	ParserCommand string   `yaml:"parser_command"`
	MaxFileSize   int64    `yaml:"max_file_size"`
	Exclude       []string `yaml:"exclude"`
}

// DefaultConfig returns a config with sensible defaults for local
// development: an in-process MemStore backend and a local Ollama-compatible
// LLM endpoint, overridable via environment variables after load.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:   configVersion,
		ProjectID: projectID,
		Store: StoreConfig{
			Backend:    "mem",
			DataDir:    ".fenec/data",
			VectorDims: 768,
			OutputDir:  ".fenec/export",
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("OLLAMA_HOST", "http://localhost:11434/v1"),
			Model:          getEnv("FENEC_LLM_MODEL", "llama3.1"),
			EmbeddingModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		},
		Summarize: SummarizeConfig{
			NumPasses:    3,
			Workers:      4,
			WriteRetries: 2,
		},
		Indexing: IndexingConfig{
			MaxFileSize: 1048576,
			Exclude: []string{
				".git/**",
				".fenec/**",
				"node_modules/**",
				"vendor/**",
				"dist/**",
				"build/**",
			},
		},
	}
}

// LoadConfig loads .env files and the YAML config from configPath, or
// auto-discovered via findConfigFile when configPath is empty. Environment
// variables always take precedence over file values.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional: a missing .env is not an error

	if configPath == "" {
		configPath = os.Getenv("FENEC_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // path comes from user config or discovery
	if err != nil {
		return nil, fenecerrors.ConfigError(fmt.Sprintf("read config %s", configPath), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fenecerrors.ConfigError(fmt.Sprintf("parse config %s", configPath), err)
	}
	if cfg.Version != configVersion {
		return nil, fenecerrors.ConfigError(fmt.Sprintf("config version %q unsupported, expected %q", cfg.Version, configVersion), nil)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// SaveConfig writes cfg to configPath as YAML, creating the parent
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fenecerrors.ConfigError("encode config", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fenecerrors.ConfigError("create config directory", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fenecerrors.ConfigError(fmt.Sprintf("write config %s", configPath), err)
	}
	return nil
}

// ConfigPath returns <dir>/.fenec/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// ConfigDir returns <dir>/.fenec.
func ConfigDir(dir string) string {
	return filepath.Join(dir, defaultConfigDir)
}

// findConfigFile walks up from the working directory looking for
// .fenec/project.yaml.
func findConfigFile() (string, error) {
	if p := os.Getenv("FENEC_CONFIG_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", fenecerrors.ConfigError(fmt.Sprintf("FENEC_CONFIG_PATH=%s does not exist", p), nil)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fenecerrors.ConfigError("determine working directory", err)
	}
	for {
		p := ConfigPath(dir)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fenecerrors.ConfigError("no .fenec/project.yaml found in this directory or any parent; run 'fenec init'", nil)
}

// applyEnvOverrides applies FENEC_*/OLLAMA_* environment variables over the
// file-loaded configuration.
func (c *Config) applyEnvOverrides() {
	if id := os.Getenv("FENEC_PROJECT_ID"); id != "" {
		c.ProjectID = id
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.LLM.BaseURL = host
	}
	if model := os.Getenv("OLLAMA_EMBED_MODEL"); model != "" {
		c.LLM.EmbeddingModel = model
	}
	if url := os.Getenv("FENEC_LLM_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if model := os.Getenv("FENEC_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if key := os.Getenv("FENEC_LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
