package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	GuestID   string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("TALLYCTL_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("TALLYCTL_TOKEN"),
		GuestID:   os.Getenv("TALLYCTL_GUEST_ID"),
		Output:    "text",
		Verbose:   false,
	}
}

// LoadCredentials loads the token and guest id from files if not
// already set
func (c *Config) LoadCredentials() error {
	if c.Token == "" {
		token, err := readCredentialFile(tokenFile())
		if err != nil {
			return err
		}
		c.Token = token
	}
	if c.GuestID == "" {
		guestID, err := readCredentialFile(guestFile())
		if err != nil {
			return err
		}
		c.GuestID = guestID
	}
	return nil
}

// SaveToken saves the bearer token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token
	return writeCredentialFile(tokenFile(), token)
}

// SaveGuestID saves the guest id to the guest file
func (c *Config) SaveGuestID(guestID string) error {
	c.GuestID = guestID
	return writeCredentialFile(guestFile(), guestID)
}

func readCredentialFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func writeCredentialFile(path, value string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(value), 0600)
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tallyctl"
	}
	return filepath.Join(home, ".tallyctl")
}

func tokenFile() string {
	return filepath.Join(configDir(), "token")
}

func guestFile() string {
	return filepath.Join(configDir(), "guest")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
