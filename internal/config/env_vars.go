package config

import "os"

const (
	baseURLVar        = "KM_PORTAL_BASE_URL"
	apiPrefixVar      = "KM_PORTAL_API_PREFIX"
	requestTimeoutVar = "KM_PORTAL_TIMEOUT"
	refreshTimeoutVar = "KM_PORTAL_REFRESH_TIMEOUT"
	sessionFileVar    = "KM_PORTAL_SESSION_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetBaseURL returns the portal backend origin (e.g. "https://km.example.com").
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetAPIPrefix() string {
	return GetEnv(apiPrefixVar, "/api")
}

// GetRequestTimeout is the overall per-request timeout as a duration string.
func (EnvVars) GetRequestTimeout() string {
	return GetEnv(requestTimeoutVar, "30s")
}

// GetRefreshTimeout bounds the token refresh exchange as a duration string.
func (EnvVars) GetRefreshTimeout() string {
	return GetEnv(refreshTimeoutVar, "10s")
}

func (EnvVars) GetSessionFile() string {
	return GetEnv(sessionFileVar, "./data/session.db")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
