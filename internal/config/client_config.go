package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	apiURLVar          = "VISITAS_API_URL"
	tokenStorageVar    = "VISITAS_TOKEN_STORAGE"
	credentialsPathVar = "VISITAS_CREDENTIALS_PATH"
	keyPrefixVar       = "VISITAS_CREDENTIALS_PREFIX"
	requestTimeoutVar  = "VISITAS_REQUEST_TIMEOUT"
)

type Client struct {
	lookup
}

var _ ClientConfig = Client{}

func (c Client) GetAPIURL() string {
	return c.get(apiURLVar, "http://localhost:5000/api")
}

// GetTokenStorage returns "session", "durable" or "sqlite".
func (c Client) GetTokenStorage() string {
	return c.get(tokenStorageVar, "session")
}

func (c Client) GetCredentialsPath() string {
	return c.get(credentialsPathVar, defaultCredentialsPath())
}

func (c Client) GetCredentialsKeyPrefix() string {
	return c.get(keyPrefixVar, "visitas.")
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.duration(requestTimeoutVar, 10*time.Second)
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "visitas-credentials.json"
	}
	return filepath.Join(dir, "visitas", "credentials.json")
}
