package config

type Config interface {
	EnvConfig
	OAuthConfig
	SmtpConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetEnv() string
}

type OAuthConfig interface {
	GetDatabasePath() string
	GetTokenExpiration() int64
	GetRefreshTokenExpiration() int64
}

type SmtpConfig interface {
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpSender() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Smtp
}

func New() Config {
	return mainConfig{}
}

// NewFromFile layers an optional YAML config file under the environment:
// env vars override file values, file values override defaults.
func NewFromFile(path string) (Config, error) {
	file, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars: EnvVars{file: file},
		OAuth:   OAuth{file: file},
		Smtp:    Smtp{file: file},
	}, nil
}
