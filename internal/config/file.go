package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileValues mirrors the YAML config file layout.
type FileValues struct {
	Port       string `yaml:"port"`
	AppName    string `yaml:"app_name"`
	DataFolder string `yaml:"data_folder"`
	BaseURL    string `yaml:"base_url"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Tokens struct {
		Expiration        int64 `yaml:"expiration"`
		RefreshExpiration int64 `yaml:"refresh_expiration"`
	} `yaml:"tokens"`

	Smtp struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Account  string `yaml:"account"`
		Password string `yaml:"password"`
		Sender   string `yaml:"sender"`
	} `yaml:"smtp"`
}

func loadFile(path string) (*FileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[config.loadFile] read")
	}
	values := &FileValues{}
	if err := yaml.Unmarshal(data, values); err != nil {
		return nil, errors.Wrap(err, "[config.loadFile] unmarshal")
	}
	return values, nil
}
