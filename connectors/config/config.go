package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	dc "kardboard/domain/config"

	"gopkg.in/yaml.v3"
)

// Load parses the YAML configuration file at path and applies defaults.
// Ticket tokens come from JIRA_TOKEN and GITHUB_TOKEN.
func Load(path string) (*dc.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c dc.Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	applyEnv(&c)
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return &c, nil
}

// Resolve loads the file named by CONFIG_PATH (default ./config.yml). A
// missing file yields the defaults.
func Resolve() (*dc.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config.yml"
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config.default", "path", path)
		c = dc.Default()
		applyEnv(c)
		return c, nil
	}
	return c, err
}

func applyEnv(c *dc.Config) {
	c.Ticket.JIRA.Token = os.Getenv("JIRA_TOKEN")
	c.Ticket.GitHub.Token = os.Getenv("GITHUB_TOKEN")
}
