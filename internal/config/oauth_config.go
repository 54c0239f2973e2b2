package config

import (
	"os"
	"strconv"
)

type OAuth struct {
	file *FileValues
}

var _ OAuthConfig = OAuth{}

// GetDatabasePath returns the SQLite database path. An empty path selects the
// in-memory store.
func (o OAuth) GetDatabasePath() string {
	if value := os.Getenv("DATABASE_PATH"); value != "" {
		return value
	}
	if o.file != nil && o.file.Database.Path != "" {
		return o.file.Database.Path
	}
	return ""
}

// GetTokenExpiration returns the access token lifetime in seconds.
func (o OAuth) GetTokenExpiration() int64 {
	if value := envInt64("TOKEN_EXPIRATION"); value > 0 {
		return value
	}
	if o.file != nil && o.file.Tokens.Expiration > 0 {
		return o.file.Tokens.Expiration
	}
	return 3600
}

// GetRefreshTokenExpiration returns the refresh token lifetime in seconds.
func (o OAuth) GetRefreshTokenExpiration() int64 {
	if value := envInt64("REFRESH_TOKEN_EXPIRATION"); value > 0 {
		return value
	}
	if o.file != nil && o.file.Tokens.RefreshExpiration > 0 {
		return o.file.Tokens.RefreshExpiration
	}
	return 30 * 24 * 3600
}

func envInt64(envVar string) int64 {
	value, err := strconv.ParseInt(os.Getenv(envVar), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
