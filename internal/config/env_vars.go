package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar   = "PORT"
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	baseURLVar   = "BASE_URL"
)

type EnvVars struct {
	file *FileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.lookup(portEnvVar, func(f *FileValues) string { return f.Port }, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.lookup(appNameVar, func(f *FileValues) string { return f.AppName }, "ZOAuth Server")
}

func (e EnvVars) GetDataFolder() string {
	return e.lookup(folderEnvVar, func(f *FileValues) string { return f.DataFolder }, "./data")
}

// GetBaseURL returns the base URL used to build links in outbound mails.
func (e EnvVars) GetBaseURL() string {
	return e.lookup(baseURLVar, func(f *FileValues) string { return f.BaseURL }, "http://localhost:8080")
}

func (e EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (e EnvVars) lookup(envVar string, fromFile func(*FileValues) string, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if e.file != nil {
		if value := fromFile(e.file); value != "" {
			return value
		}
	}
	return defaultValue
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
