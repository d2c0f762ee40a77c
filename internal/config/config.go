// Package config resolves panelsync configuration from flags, environment
// variables, and an optional config file via viper. It validates settings
// on startup to fail fast on misconfiguration.
package config

import (
	"net/url"

	"github.com/spf13/viper"

	"github.com/eastglh/panelsync/pkg/errors"
)

// Config holds all application configuration.
type Config struct {
	Database Database
	PanelApp PanelApp
}

// Database holds the Postgres connection settings. Keys match the env
// contract of the test-directory deployment (DB_ENDPOINT, DB_PORT, ...).
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// PanelApp holds the registry API settings.
type PanelApp struct {
	BaseURL string
}

// viper keys; AutomaticEnv with an underscore replacer maps db.endpoint
// to DB_ENDPOINT and so on.
const (
	keyDBEndpoint  = "db.endpoint"
	keyDBPort      = "db.port"
	keyDBUsername  = "db.username"
	keyDBPassword  = "db.password"
	keyDBName      = "db.name"
	keyPanelAppURL = "panelapp.url"
)

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(keyDBPort, "5432")
	v.SetDefault(keyPanelAppURL, "https://panelapp.genomicsengland.co.uk/api/v1")
}

// Load resolves configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: Database{
			Host:     v.GetString(keyDBEndpoint),
			Port:     v.GetString(keyDBPort),
			User:     v.GetString(keyDBUsername),
			Password: v.GetString(keyDBPassword),
			Name:     v.GetString(keyDBName),
		},
		PanelApp: PanelApp{
			BaseURL: v.GetString(keyPanelAppURL),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	switch {
	case c.Database.Host == "":
		return errors.NewConfigError("database", "DB_ENDPOINT is required", nil)
	case c.Database.User == "":
		return errors.NewConfigError("database", "DB_USERNAME is required", nil)
	case c.Database.Name == "":
		return errors.NewConfigError("database", "DB_NAME is required", nil)
	case c.PanelApp.BaseURL == "":
		return errors.NewConfigError("panelapp", "PANELAPP_URL is required", nil)
	}
	return nil
}

// URL assembles the Postgres connection URL for pgx.
func (d Database) URL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}
