package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	configFileEnvVar = "VISITAS_CONFIG"
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	envNameVar       = "ENV"
	logLevelVar      = "VISITAS_LOG_LEVEL"
)

type EnvVars struct {
	lookup
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.get(portEnvVar, "5000")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Visitas")
}

func (e EnvVars) GetEnv() string {
	return e.get(envNameVar, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
