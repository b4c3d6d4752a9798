package client

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHATCLI_URL is the relay's base address, http(s) or ws(s).
	URL  string `envconfig:"CHATCLI_URL" default:"ws://localhost:8080"`
	Name string `envconfig:"CHATCLI_NAME"`
	// CHATCLI_COLOURS enables colorized terminal output
	Colours bool `envconfig:"CHATCLI_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
