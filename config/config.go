// Package config reads the runtime configuration of the map server from the
// environment. Every getter falls back to a default usable for local runs.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

type SessionStore string

const (
	SessionStoreRedis  SessionStore = "redis"
	SessionStoreCookie SessionStore = "cookie"
)

const (
	defaultPort          = 5000
	defaultSessionMaxAge = 7 * 24 * 60
	defaultAdminEmail    = "admin@mapavioleta.com"
	defaultPresenceSweep = "@every 1m"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("MAPA_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("MAPA_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("MAPA_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "instance"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("MAPA_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "log"
	}
	return logFolderPath
}

func GetListen() string {
	return os.Getenv("MAPA_LISTEN")
}

func GetPort() int {
	return getEnvInt("MAPA_PORT", defaultPort)
}

func GetCertFile() string {
	return os.Getenv("MAPA_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("MAPA_KEY_FILE")
}

// GetSecret returns the session signing key. An empty result means the
// caller has to generate one for the lifetime of the process.
func GetSecret() string {
	if secret := os.Getenv("MAPA_SECRET"); secret != "" {
		return secret
	}
	return os.Getenv("SECRET_KEY")
}

func GetSessionStore() SessionStore {
	switch SessionStore(strings.ToLower(os.Getenv("MAPA_SESSION_STORE"))) {
	case SessionStoreCookie:
		return SessionStoreCookie
	default:
		return SessionStoreRedis
	}
}

// GetSessionMaxAge returns the session lifetime in minutes.
func GetSessionMaxAge() int {
	return getEnvInt("MAPA_SESSION_MAX_AGE", defaultSessionMaxAge)
}

// GetRedisAddr returns the external Redis address; empty selects the
// embedded server.
func GetRedisAddr() string {
	return os.Getenv("MAPA_REDIS_ADDR")
}

func GetAdminEmail() string {
	if email := os.Getenv("MAPA_ADMIN_EMAIL"); email != "" {
		return email
	}
	return defaultAdminEmail
}

func GetAdminPassword() string {
	return os.Getenv("MAPA_ADMIN_PASSWORD")
}

func GetPresenceSweepSpec() string {
	if spec := os.Getenv("MAPA_PRESENCE_SWEEP"); spec != "" {
		return spec
	}
	return defaultPresenceSweep
}

// GetTrustedProxies returns the comma-separated MAPA_TRUSTED_PROXIES list.
// Forwarding headers from any other peer are ignored.
func GetTrustedProxies() []string {
	var proxies []string
	for _, p := range strings.Split(os.Getenv("MAPA_TRUSTED_PROXIES"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
