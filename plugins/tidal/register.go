package tidal

import (
	"fmt"
	"time"

	"github.com/spotelegramify/spotelegramify-go/bot/config"
	logpkg "github.com/spotelegramify/spotelegramify-go/bot/logger"
	platformplugins "github.com/spotelegramify/spotelegramify-go/bot/platform/plugins"
)

func init() {
	if err := platformplugins.Register(platformName, buildContribution); err != nil {
		panic(err)
	}
}

func buildContribution(cfg *config.Config, logger *logpkg.Logger) (*platformplugins.Contribution, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logger == nil {
		logger = logpkg.Nop()
	}
	opts := Options{
		ClientID:     cfg.GetPluginStringOr(platformName, "client_id", "TIDAL_CLIENT_ID"),
		ClientSecret: cfg.GetPluginStringOr(platformName, "client_secret", "TIDAL_CLIENT_SECRET"),
		AccessToken:  cfg.GetPluginStringOr(platformName, "access_token", "TIDAL_ACCESS_TOKEN"),
		RefreshToken: cfg.GetPluginStringOr(platformName, "refresh_token", "TIDAL_REFRESH_TOKEN"),
		CountryCode:  cfg.GetPluginString(platformName, "country_code"),
		APIURL:       cfg.GetPluginString(platformName, "api_url"),
		TokenURL:     cfg.GetPluginString(platformName, "token_url"),
		MaxRetries:   cfg.GetPluginInt(platformName, "max_retries"),
		Timeout:      time.Duration(cfg.GetInt("CatalogTimeoutSec")) * time.Second,
	}
	if opts.AccessToken == "" && opts.RefreshToken == "" {
		logger.Warn("tidal plugin skipped: access_token/refresh_token not configured")
		return nil, nil
	}
	client, err := New(opts, logger)
	if err != nil {
		return nil, err
	}
	return &platformplugins.Contribution{Catalog: NewPlatform(client, logger)}, nil
}
