package config

import "time"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Ticket  TicketConfig `yaml:"ticket"`
	Report  struct {
		ServiceClasses []string `yaml:"service_classes"`
	} `yaml:"report"`
	Web struct {
		Addr  string `yaml:"addr"`
		UIDir string `yaml:"ui_dir"`
	} `yaml:"web"`
}

// TicketConfig selects the ticket system cards are synchronized with.
// Tokens are read from JIRA_TOKEN / GITHUB_TOKEN, never from the file.
type TicketConfig struct {
	System     string        `yaml:"system"` // test|jira|github
	StaleAfter time.Duration `yaml:"stale_after"`
	JIRA       struct {
		URL   string `yaml:"url"`
		Token string `yaml:"-"`
	} `yaml:"jira"`
	GitHub struct {
		APIURL string `yaml:"api_url"`
		Token  string `yaml:"-"`
	} `yaml:"github"`
}

const (
	DefaultDataDir    = "./data"
	DefaultSystem     = "test"
	DefaultStaleAfter = time.Hour
	DefaultAddr       = ":8080"
	DefaultUIDir      = "./ui/dist"
	DefaultGitHubAPI  = "https://api.github.com"
)

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Ticket.System == "" {
		c.Ticket.System = DefaultSystem
	}
	if c.Ticket.StaleAfter <= 0 {
		c.Ticket.StaleAfter = DefaultStaleAfter
	}
	if c.Ticket.GitHub.APIURL == "" {
		c.Ticket.GitHub.APIURL = DefaultGitHubAPI
	}
	if c.Web.Addr == "" {
		c.Web.Addr = DefaultAddr
	}
	if c.Web.UIDir == "" {
		c.Web.UIDir = DefaultUIDir
	}
}
