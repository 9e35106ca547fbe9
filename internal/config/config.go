package config

import (
	"fmt"
	"os"
	"time"
)

type Config interface {
	EnvConfig
	ClientConfig
	ServerConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type ClientConfig interface {
	GetAPIURL() string
	GetTokenStorage() string
	GetCredentialsPath() string
	GetCredentialsKeyPrefix() string
	GetRequestTimeout() time.Duration
}

type ServerConfig interface {
	GetJWTSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
	GetAdminUsername() string
	GetAdminPassword() string
}

type mainConfig struct {
	EnvVars
	Client
	Server
}

// New returns a Config backed by environment variables only.
func New() Config {
	return newConfig(nil)
}

// Load returns a Config backed by environment variables, falling back to the
// values in the YAML file at path. An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	values, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	return newConfig(values), nil
}

// FromEnv loads the file named by VISITAS_CONFIG, if set.
func FromEnv() (Config, error) {
	return Load(os.Getenv(configFileEnvVar))
}

func newConfig(values fileValues) Config {
	l := lookup{file: values}
	return mainConfig{
		EnvVars: EnvVars{l},
		Client:  Client{l},
		Server:  Server{l},
	}
}

// lookup resolves a setting: environment first, then the config file, then the default.
type lookup struct {
	file fileValues
}

func (l lookup) get(envVar, defaultValue string) string {
	if value := GetEnv(envVar, ""); value != "" {
		return value
	}
	if value, ok := l.file[envVar]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (l lookup) duration(envVar string, defaultValue time.Duration) time.Duration {
	raw := l.get(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
