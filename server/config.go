package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyclopcam/dbh"
	"github.com/kelseyhightower/envconfig"
	"github.com/tavernkeep/tavern/server/auth"
)

// Config is the JSON config file. OAuth client credentials may also be
// supplied via TAVERN_TWITCH_CLIENT_ID etc, so that secrets can stay out of
// the file; env values win over file values.
type Config struct {
	DB             dbh.DBConfig      `json:"db"`
	HTTP           HTTPConfig        `json:"http"`
	Twitch         auth.TwitchConfig `json:"twitch"`
	SiteAdminLogin string            `json:"siteAdminLogin"` // login of the site owner; gets IsSiteAdmin on the identity view
	NotifyEndpoint string            `json:"notifyEndpoint"` // internal notification receiver for payment events
	StaticRoot     string            `json:"staticRoot"`     // directory of public assets; empty disables static serving
}

type HTTPConfig struct {
	Port int `json:"port"` // 0 means 8080
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
	}
	env := auth.TwitchConfig{}
	if err := envconfig.Process("tavern", &env); err != nil {
		return nil, err
	}
	if env.ClientID != "" {
		cfg.Twitch.ClientID = env.ClientID
	}
	if env.ClientSecret != "" {
		cfg.Twitch.ClientSecret = env.ClientSecret
	}
	if env.CallbackURL != "" {
		cfg.Twitch.CallbackURL = env.CallbackURL
	}
	return cfg, nil
}
