package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const configTemplate = `# Required. The company (tenant) identifier, as in https://app.recruitee.com/#/companies/<company_id>
company_id = "{{COMPANY_ID}}"

# Required. Personal API token. Can be found in Settings -> Apps and plugins -> Personal API tokens
api_token = "{{API_TOKEN}}"

# Optional API host, default "https://api.recruitee.com". Point it at the sandbox
# (http://127.0.0.1:9292) to try commands without touching real data.
base_url = "https://api.recruitee.com"

# Optional log level, default "info"
loglevel = "info"

# Optional request timeout in secs, default 10
timeout = 10

# Optional number of attempts per command, default 1 (no retries). Only connection
# failures, rate limiting and server errors are retried.
retries = 1

[sandbox]
# Optional bind address, default "127.0.0.1"
bind_address = "127.0.0.1"

# Optional TCP port, default 9292
port = 9292

# Optional company and token the sandbox accepts, default "sandbox" and "sandbox-token"
company_id = "sandbox"
api_token = "sandbox-token"
`

// RenderConfig returns the config template filled in with the credentials.
func RenderConfig(companyID, apiToken string) string {
	replacer := strings.NewReplacer(
		"{{COMPANY_ID}}", escapeTOML(companyID),
		"{{API_TOKEN}}", escapeTOML(apiToken),
	)
	return replacer.Replace(configTemplate)
}

func escapeTOML(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// GenerateConfig writes a configuration file for the given credentials,
// reporting progress to out. An existing file is kept as <path>.bak.
func GenerateConfig(out io.Writer, configPath, companyID, apiToken string) error {
	if companyID == "" {
		return fmt.Errorf("company id is required")
	}
	if apiToken == "" {
		return fmt.Errorf("api token is required")
	}

	fmt.Fprintf(out, "Generating config %s\n", configPath)

	config := RenderConfig(companyID, apiToken)

	// Check if config file already exists and back it up
	if _, err := os.Stat(configPath); err == nil {
		backupPath := configPath + ".bak"
		fmt.Fprintf(out, "Backing up config %s\n", configPath)
		if err := os.Rename(configPath, backupPath); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file holds an API token
	fmt.Fprintf(out, "Writing %s\n", configPath)
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
