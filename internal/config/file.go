package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// fileValues maps environment variable names to the values read from a config file.
type fileValues map[string]string

// configFile is the YAML layout of VISITAS_CONFIG. Each field stands in for the
// environment variable named in the comment.
type configFile struct {
	App struct {
		Name     string `yaml:"name"`      // APP_NAME
		Env      string `yaml:"env"`       // ENV
		LogLevel string `yaml:"log_level"` // VISITAS_LOG_LEVEL
	} `yaml:"app"`
	API struct {
		URL     string `yaml:"url"`     // VISITAS_API_URL
		Timeout string `yaml:"timeout"` // VISITAS_REQUEST_TIMEOUT
	} `yaml:"api"`
	Credentials struct {
		Storage   string `yaml:"storage"`    // VISITAS_TOKEN_STORAGE
		Path      string `yaml:"path"`       // VISITAS_CREDENTIALS_PATH
		KeyPrefix string `yaml:"key_prefix"` // VISITAS_CREDENTIALS_PREFIX
	} `yaml:"credentials"`
	Server struct {
		Port               string `yaml:"port"`                 // PORT
		JWTSecret          string `yaml:"jwt_secret"`           // JWT_SECRET
		Issuer             string `yaml:"issuer"`               // JWT_ISSUER
		AccessTokenExpiry  string `yaml:"access_token_expiry"`  // ACCESS_TOKEN_EXPIRY
		RefreshTokenExpiry string `yaml:"refresh_token_expiry"` // REFRESH_TOKEN_EXPIRY
		AllowedOrigins     string `yaml:"allowed_origins"`      // ALLOWED_ORIGINS
		AdminUsername      string `yaml:"admin_username"`       // ADMIN_USERNAME
		AdminPassword      string `yaml:"admin_password"`       // ADMIN_PASSWORD
	} `yaml:"server"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func readFile(path string) (fileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (fileValues, error) {
	expanded := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	var cf configFile
	if err := yaml.Unmarshal([]byte(expanded), &cf); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return fileValues{
		appNameVar:            cf.App.Name,
		envNameVar:            cf.App.Env,
		logLevelVar:           cf.App.LogLevel,
		apiURLVar:             cf.API.URL,
		requestTimeoutVar:     cf.API.Timeout,
		tokenStorageVar:       cf.Credentials.Storage,
		credentialsPathVar:    cf.Credentials.Path,
		keyPrefixVar:          cf.Credentials.KeyPrefix,
		portEnvVar:            cf.Server.Port,
		jwtSecretVar:          cf.Server.JWTSecret,
		issuerVar:             cf.Server.Issuer,
		accessTokenExpiryVar:  cf.Server.AccessTokenExpiry,
		refreshTokenExpiryVar: cf.Server.RefreshTokenExpiry,
		allowedOriginsVar:     cf.Server.AllowedOrigins,
		adminUsernameVar:      cf.Server.AdminUsername,
		adminPasswordVar:      cf.Server.AdminPassword,
	}, nil
}
