// Package config resolves tool configuration from layered sources:
// environment variables (including a .env file) first, then a config file.
// The environment wins only when it carries a complete Jira section, so a
// partially exported shell never shadows a valid config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sentinel errors callers branch on.
var (
	// ErrNotFound means no source yielded a configuration at all.
	ErrNotFound = errors.New("config: no configuration found")
	// ErrInvalid means a source was present but unusable: malformed file,
	// or required Jira keys missing or empty.
	ErrInvalid = errors.New("config: invalid configuration")
)

// DefaultPath is the config file consulted when --config is not given.
const DefaultPath = "config.json"

var requiredJiraKeys = []string{"url", "username", "api_token", "project_key"}

// Jira holds the connection settings every command needs.
type Jira struct {
	URL        string
	Username   string
	APIToken   string
	ProjectKey string
}

// Config is the resolved configuration. Sections beyond jira (confluence,
// ai, per-analyzer settings) are exposed as string maps since their keys
// vary by deployment.
type Config struct {
	Jira   Jira
	Source string

	sections map[string]map[string]string
}

// Load resolves configuration: .env is loaded into the environment first,
// then the environment is checked for a complete Jira section, then the
// config file at path (DefaultPath when empty).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if cfg, ok := fromEnv(); ok {
		return cfg, nil
	}

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf(
			"%w: set JIRA_URL, JIRA_USERNAME, JIRA_API_TOKEN and JIRA_PROJECT_KEY, or create %s",
			ErrNotFound, path)
	}
	return fromFile(path)
}

// fromEnv builds a configuration from environment variables. It only
// applies when all required Jira variables are present and non-blank.
func fromEnv() (*Config, bool) {
	jira := Jira{
		URL:        os.Getenv("JIRA_URL"),
		Username:   os.Getenv("JIRA_USERNAME"),
		APIToken:   os.Getenv("JIRA_API_TOKEN"),
		ProjectKey: os.Getenv("JIRA_PROJECT_KEY"),
	}
	for _, v := range []string{jira.URL, jira.Username, jira.APIToken, jira.ProjectKey} {
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
	}

	sections := map[string]map[string]string{
		"jira": {
			"url":         jira.URL,
			"username":    jira.Username,
			"api_token":   jira.APIToken,
			"project_key": jira.ProjectKey,
		},
		"confluence": {
			"url":       os.Getenv("CONFLUENCE_URL"),
			"username":  os.Getenv("CONFLUENCE_USERNAME"),
			"api_token": os.Getenv("CONFLUENCE_API_TOKEN"),
			"space":     os.Getenv("CONFLUENCE_DEFAULT_SPACE"),
		},
		"ai": {
			"gemini_api_key":    os.Getenv("GEMINI_API_KEY"),
			"anthropic_api_key": os.Getenv("ANTHROPIC_API_KEY"),
		},
	}
	return &Config{Jira: jira, Source: "environment", sections: sections}, true
}

func fromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	sections := flattenSections(v.AllSettings())

	jiraSection, ok := sections["jira"]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing 'jira' section", ErrInvalid, path)
	}
	var missing, empty []string
	for _, key := range requiredJiraKeys {
		value, present := jiraSection[key]
		switch {
		case !present:
			missing = append(missing, key)
		case value == "":
			empty = append(empty, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: missing required jira keys: %s",
			ErrInvalid, path, strings.Join(missing, ", "))
	}
	if len(empty) > 0 {
		return nil, fmt.Errorf("%w: %s: empty values for required jira keys: %s",
			ErrInvalid, path, strings.Join(empty, ", "))
	}

	return &Config{
		Jira: Jira{
			URL:        jiraSection["url"],
			Username:   jiraSection["username"],
			APIToken:   jiraSection["api_token"],
			ProjectKey: jiraSection["project_key"],
		},
		Source:   path,
		sections: sections,
	}, nil
}

// flattenSections turns the parsed file into named string-map sections.
// Top-level maps become sections; maps nested under "analyzers" become
// sections of their own unless a top-level section already claims the name.
func flattenSections(settings map[string]any) map[string]map[string]string {
	sections := make(map[string]map[string]string)

	for name, value := range settings {
		if name == "analyzers" {
			continue
		}
		if m, ok := value.(map[string]any); ok {
			sections[name] = stringifyMap(m)
		}
	}

	if analyzers, ok := settings["analyzers"].(map[string]any); ok {
		for name, value := range analyzers {
			if _, claimed := sections[name]; claimed {
				continue
			}
			if m, ok := value.(map[string]any); ok {
				sections[name] = stringifyMap(m)
			}
		}
	}
	return sections
}

func stringifyMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch value := v.(type) {
		case string:
			out[k] = value
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(value)
		}
	}
	return out
}

// Section returns a named configuration section. Unknown names yield an
// empty map, never nil, so lookups on optional sections stay branch-free.
func (c *Config) Section(name string) map[string]string {
	section, ok := c.sections[name]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(section))
	for k, v := range section {
		out[k] = v
	}
	return out
}

// Setting returns one value from a section, with a default for absent or
// empty values.
func (c *Config) Setting(section, key, def string) string {
	if v := c.sections[section][key]; v != "" {
		return v
	}
	return def
}

// IntSetting is Setting for numeric values; unparseable values fall back to
// the default.
func (c *Config) IntSetting(section, key string, def int) int {
	v := c.sections[section][key]
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
