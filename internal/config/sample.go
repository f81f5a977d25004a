package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// sample is the skeleton written by `config init`. Ordered slices keep the
// YAML rendering stable.
func sample() map[string]any {
	return map[string]any{
		"jira": map[string]any{
			"url":         "https://your-domain.atlassian.net",
			"username":    "your-email@company.com",
			"api_token":   "your-api-token-here",
			"project_key": "YOUR_PROJECT_KEY",
		},
		"confluence": map[string]any{
			"url":       "https://your-domain.atlassian.net/wiki",
			"username":  "your-email@company.com",
			"api_token": "your-confluence-api-token",
			"space":     "YOUR_SPACE_KEY",
		},
		"ai": map[string]any{
			"gemini_api_key":    "your-gemini-api-key",
			"anthropic_api_key": "your-anthropic-api-key",
		},
		"analyzers": map[string]any{
			"sprint": map[string]any{
				"analysis_mode":      "month",
				"target_month":       6,
				"last_sprints_count": 4,
			},
		},
	}
}

// WriteSample writes a sample configuration file. The format follows the
// path extension: .yaml/.yml renders YAML, anything else JSON.
func WriteSample(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(sample())
	} else {
		data, err = json.MarshalIndent(sample(), "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("config: rendering sample: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
