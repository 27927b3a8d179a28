package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"github.com/spotelegramify/spotelegramify-go/bot/admincmd"
	"github.com/spotelegramify/spotelegramify-go/bot/config"
	"github.com/spotelegramify/spotelegramify-go/bot/db"
	logpkg "github.com/spotelegramify/spotelegramify-go/bot/logger"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	platformplugins "github.com/spotelegramify/spotelegramify-go/bot/platform/plugins"
	"github.com/spotelegramify/spotelegramify-go/bot/playlist"
	"github.com/spotelegramify/spotelegramify-go/bot/telegram"
	"github.com/spotelegramify/spotelegramify-go/bot/telegram/handler"
	"github.com/spotelegramify/spotelegramify-go/bot/worker"
	"golang.org/x/sync/errgroup"
)

// ErrNoCatalogs is returned when no catalog plugin could be initialized.
var ErrNoCatalogs = errors.New("no catalog configured")

// App wires all application dependencies.
type App struct {
	Config          *config.Config
	Logger          *logpkg.Logger
	DB              *db.Repository
	Pool            *worker.Pool
	PlatformManager platform.Manager
	Telegram        *telegram.Bot
	Playlists       *playlist.Service
	Build           BuildInfo

	router *handler.Router
	done   chan struct{}
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New builds the application container.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logpkg.New(logpkg.Options{
		Level:     conf.GetString("LogLevel"),
		Format:    conf.GetString("LogFormat"),
		Dir:       conf.GetString("LogDir"),
		AddSource: conf.GetBool("LogSource"),
	})
	if err != nil {
		return nil, err
	}

	gormLogger := logpkg.NewGormLogger(log.Slog(), logpkg.ParseGormLevel(conf.GetString("GormLogLevel")))
	databasePath := conf.GetString("Database")
	if strings.TrimSpace(databasePath) == "" {
		databasePath = "spotelegramify.db"
	}

	repo, err := db.NewSQLiteRepository(databasePath, gormLogger)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	poolMaxOpen := conf.GetInt("DBMaxOpenConns")
	poolMaxIdle := conf.GetInt("DBMaxIdleConns")
	poolMaxLifetimeSec := conf.GetInt("DBConnMaxLifetimeSec")
	if err := repo.ConfigurePool(poolMaxOpen, poolMaxIdle, time.Duration(poolMaxLifetimeSec)*time.Second); err != nil {
		closeAll(log, repo)
		return nil, fmt.Errorf("configure db pool: %w", err)
	}
	chats, err := repo.CountChats(ctx)
	if err != nil {
		closeAll(log, repo)
		return nil, fmt.Errorf("read chats: %w", err)
	}

	platformManager, err := loadCatalogs(conf, log)
	if err != nil {
		closeAll(log, repo)
		return nil, err
	}

	tele, err := telegram.New(conf, log)
	if err != nil {
		closeAll(log, repo)
		return nil, fmt.Errorf("init telegram: %w", err)
	}

	pool := worker.New(conf.GetInt("WorkerPoolSize"), log.With("component", "worker"))

	log.Info("application initialized",
		"version", build.BinVersion,
		"catalogs", strings.Join(platformManager.List(), ","),
		"database", databasePath,
		"chats", chats,
		"workers", pool.Size(),
	)

	return &App{
		Config:          conf,
		Logger:          log,
		DB:              repo,
		Pool:            pool,
		PlatformManager: platformManager,
		Telegram:        tele,
		Playlists:       playlist.NewService(platformManager, repo, repo, log),
		Build:           build,
	}, nil
}

// closeAll releases what New acquired before failing.
func closeAll(log *logpkg.Logger, repo *db.Repository) {
	if repo != nil {
		_ = repo.Close()
	}
	_ = log.Close()
}

// loadCatalogs runs every registered plugin factory that is enabled in config.
// A plugin that is not configured or fails to initialize is skipped; none at all is fatal.
func loadCatalogs(conf *config.Config, log *logpkg.Logger) (*platform.DefaultManager, error) {
	manager := platform.NewManager()
	for _, name := range platformplugins.Names() {
		if !conf.PluginEnabled(name) {
			log.Info("plugin disabled by config", "plugin", name)
			continue
		}
		factory, ok := platformplugins.Get(name)
		if !ok {
			log.Warn("plugin not registered", "plugin", name)
			continue
		}
		contrib, err := factory(conf, log)
		if err != nil {
			log.Error("plugin init failed", "plugin", name, "error", err)
			continue
		}
		if contrib == nil || contrib.Catalog == nil {
			continue
		}
		if err := manager.Register(contrib.Catalog); err != nil {
			log.Error("catalog registration failed", "plugin", name, "error", err)
			continue
		}
		log.Info("catalog enabled", "catalog", contrib.Catalog.Name())
	}
	if len(manager.List()) == 0 {
		return nil, ErrNoCatalogs
	}
	return manager, nil
}

// Start refreshes catalog credentials, registers bot commands and starts long polling.
func (a *App) Start(ctx context.Context) error {
	a.refreshCatalogs(ctx)

	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	me, err := a.Telegram.GetMe(meCtx)
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	a.Logger.Info("telegram bot authorized", "username", me.Username, "id", me.ID)

	a.router = a.buildRouter(me.Username, me.ID)

	if err := a.Telegram.SetCommands(ctx, botCommands()); err != nil {
		a.Logger.Warn("failed to register bot commands", "error", err)
	}

	updates, err := a.Telegram.Updates(ctx)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		if err := a.router.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error("update loop stopped", "error", err)
		}
	}()
	return nil
}

// refreshCatalogs refreshes every catalog concurrently. Failures are logged, the
// affected catalog retries on its next append.
func (a *App) refreshCatalogs(ctx context.Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range a.PlatformManager.List() {
		catalog := a.PlatformManager.Get(name)
		if catalog == nil {
			continue
		}
		group.Go(func() error {
			if err := catalog.RefreshAuth(groupCtx); err != nil {
				a.Logger.Warn("catalog auth refresh failed", "catalog", name, "error", err)
				return nil
			}
			a.Logger.Debug("catalog auth refreshed", "catalog", name)
			return nil
		})
	}
	_ = group.Wait()
}

func (a *App) buildRouter(botName string, botID int64) *handler.Router {
	adminIDs := handler.AdminSet(append(
		a.Config.GetInt64List("ADMIN_USER_TELEGRAM_ID"),
		a.Config.GetInt64List("BotAdmin")...,
	))
	if len(adminIDs) == 0 {
		a.Logger.Warn("no admin configured, playlists cannot be bound", "key", "ADMIN_USER_TELEGRAM_ID")
	}

	whitelistEnabled := a.Config.GetBool("EnableWhitelist")
	whitelist := handler.NewWhitelist(
		whitelistEnabled,
		handler.AdminSet(a.Config.GetInt64List("WhitelistChatIDs")),
		adminIDs,
		a.Config.Path(),
	)

	adminCommands := []admincmd.Command{handler.BuildRefreshAuthCommand(a.PlatformManager)}
	if whitelistEnabled {
		adminCommands = append(adminCommands, handler.BuildWhitelistCommands(whitelist)...)
	}

	return &handler.Router{
		BotName:   botName,
		BotID:     botID,
		Pool:      a.Pool,
		Replier:   a.Telegram,
		Logger:    a.Logger,
		Whitelist: whitelist,
		Links: &handler.LinkHandler{
			Processor: a.Playlists,
			Manager:   a.PlatformManager,
			Logger:    a.Logger,
		},
		Binding: &handler.BindingHandler{
			BotName:  botName,
			AdminIDs: adminIDs,
			Manager:  a.PlatformManager,
			Repo:     a.DB,
			Logger:   a.Logger,
		},
		Playlist: &handler.PlaylistHandler{Manager: a.PlatformManager, Repo: a.DB, Logger: a.Logger},
		Help:     &handler.HelpHandler{Manager: a.PlatformManager, Repo: a.DB, Logger: a.Logger},
		Status:   &handler.StatusHandler{Repo: a.DB, Stats: a.DB, Manager: a.PlatformManager, Logger: a.Logger},
		ChatInit: &handler.ChatInitHandler{Manager: a.PlatformManager, Repo: a.DB, Logger: a.Logger},
		Admin: &handler.AdminCommandHandler{
			BotName:  botName,
			AdminIDs: adminIDs,
			Commands: adminCommands,
			Logger:   a.Logger,
		},
	}
}

func botCommands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "help", Description: "How to use this bot"},
		{Command: "playlist", Description: "Show the playlists of this chat"},
		{Command: "set_playlist", Description: "Bind a playlist: <catalog> <id or link> (admin)"},
		{Command: "status", Description: "Show bot statistics"},
	}
}

// Shutdown releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.done != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
		}
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("failed to close database", "error", err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		a.Logger.Info("application stopped")
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}
