// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package kaalition

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kaalition/kaalition-go/lib/credstore"
)

// FileConfig is the on-disk YAML configuration for the client.
type FileConfig struct {
	// BaseURL is the platform base URL. Required.
	BaseURL string `yaml:"base_url"`
	// AccountsFile is the path of the credential store. Empty disables
	// persistence.
	AccountsFile string `yaml:"accounts_file"`
	// UserAgent overrides the client identity header.
	UserAgent string `yaml:"user_agent"`
	// EmailDomains is the domain pool for generated registration emails.
	EmailDomains []string `yaml:"email_domains"`
	// TimeoutSeconds is the per-request timeout. Zero uses the default.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// SkipOwnershipCheck disables the local sender-identity check on
	// message edits and deletes.
	SkipOwnershipCheck bool `yaml:"skip_ownership_check"`
}

// LoadFileConfig reads and validates a YAML configuration file.
func LoadFileConfig(path string) (FileConfig, error) {
	var config FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if config.BaseURL == "" {
		return config, fmt.Errorf("config %q: base_url is required", path)
	}
	return config, nil
}

// ClientConfig converts the file configuration into a ClientConfig.
func (c FileConfig) ClientConfig() ClientConfig {
	config := ClientConfig{
		BaseURL:            c.BaseURL,
		UserAgent:          c.UserAgent,
		EmailDomains:       c.EmailDomains,
		SkipOwnershipCheck: c.SkipOwnershipCheck,
	}
	if c.AccountsFile != "" {
		config.Store = credstore.New(c.AccountsFile)
	}
	if c.TimeoutSeconds > 0 {
		config.HTTPClient = &http.Client{Timeout: time.Duration(c.TimeoutSeconds) * time.Second}
	}
	return config
}

// LoadClientConfig reads a YAML configuration file and converts it directly
// into a ClientConfig.
func LoadClientConfig(path string) (ClientConfig, error) {
	fileConfig, err := LoadFileConfig(path)
	if err != nil {
		return ClientConfig{}, err
	}
	return fileConfig.ClientConfig(), nil
}
