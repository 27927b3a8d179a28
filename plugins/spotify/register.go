package spotify

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
		ClientID:     cfg.GetPluginStringOr(platformName, "client_id", "SPOTIFY_CLIENT_ID", "CLIENT_ID"),
		ClientSecret: cfg.GetPluginStringOr(platformName, "client_secret", "SPOTIFY_CLIENT_SECRET", "CLIENT_SECRET"),
		RefreshToken: cfg.GetPluginStringOr(platformName, "refresh_token", "SPOTIFY_REFRESH_TOKEN"),
		RedirectURL:  cfg.GetPluginString(platformName, "redirect_url"),
		APIURL:       cfg.GetPluginString(platformName, "api_url"),
		TokenURL:     cfg.GetPluginString(platformName, "token_url"),
		Market:       cfg.GetPluginString(platformName, "market"),
		Timeout:      time.Duration(cfg.GetInt("CatalogTimeoutSec")) * time.Second,
	}
	if opts.ClientID == "" || opts.ClientSecret == "" {
		logger.Warn("spotify plugin skipped: client_id/client_secret not configured")
		return nil, nil
	}
	if opts.RefreshToken == "" {
		logger.Warn("spotify refresh_token not configured, playlist updates will fail")
	}
	client, err := New(opts, logger)
	if err != nil {
		return nil, err
	}
	return &platformplugins.Contribution{Catalog: NewPlatform(client, logger)}, nil
}
