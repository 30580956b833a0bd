package ecmwf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xhhuango/json"
)

const DefaultAPIURL = "https://api.ecmwf.int/v1"

// Credentials authenticate against the ECMWF Web API. The key is found on
// the user profile page of the ECMWF website.
type Credentials struct {
	URL   string `json:"url"`
	Key   string `json:"key"`
	Email string `json:"email"`
}

// LoadCredentials reads ECMWF_API_URL, ECMWF_API_KEY and ECMWF_API_EMAIL,
// falling back to the JSON file ~/.ecmwfapirc when the key is not set.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		URL:   os.Getenv("ECMWF_API_URL"),
		Key:   os.Getenv("ECMWF_API_KEY"),
		Email: os.Getenv("ECMWF_API_EMAIL"),
	}

	if creds.Key == "" {
		path := os.Getenv("ECMWF_API_RC_FILE")
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return Credentials{}, fmt.Errorf("locating home directory: %w", err)
			}
			path = filepath.Join(home, ".ecmwfapirc")
		}
		fileCreds, err := ReadCredentialsFile(path)
		if err != nil {
			return Credentials{}, err
		}
		creds = fileCreds
	}

	if creds.URL == "" {
		creds.URL = DefaultAPIURL
	}
	if creds.Key == "" || creds.Email == "" {
		return Credentials{}, errors.New("ECMWF API key and email are required")
	}
	return creds, nil
}

func ReadCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials file %s: %w", path, err)
	}
	return creds, nil
}
