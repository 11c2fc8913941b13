package main

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all flowcost process configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	FrontendOrigin string `json:"frontend_origin"`
	LogLevel       string `json:"log_level"`
	PricingFile    string `json:"pricing_file"`
	ToolsFile      string `json:"tools_file"`
	Metrics        bool   `json:"metrics"`
}

func defaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8000,
		FrontendOrigin: "http://localhost:3000",
		LogLevel:       "info",
	}
}

func flowcostDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flowcost"
	}
	return filepath.Join(home, ".flowcost")
}

func settingsPath() string {
	return filepath.Join(flowcostDir(), "settings.json")
}

func loadConfig() Config {
	return loadConfigFrom(settingsPath(), os.Getenv)
}

// loadConfigFrom layers the settings file at path and the environment
// read through getenv over the defaults.
func loadConfigFrom(path string, getenv func(string) string) Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := getenv("FRONTEND_ORIGIN"); v != "" {
		cfg.FrontendOrigin = v
	}
	if v := getenv("FLOWCOST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("FLOWCOST_PRICING_FILE"); v != "" {
		cfg.PricingFile = v
	}
	if v := getenv("FLOWCOST_TOOLS_FILE"); v != "" {
		cfg.ToolsFile = v
	}
	if v := getenv("FLOWCOST_METRICS"); v != "" {
		cfg.Metrics = v == "true" || v == "1"
	}

	return cfg
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Origins splits FrontendOrigin on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.FrontendOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
