package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spotelegramify/spotelegramify-go/bot"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrUnknownCatalog is returned for a binding on a catalog without a playlist column.
var ErrUnknownCatalog = errors.New("db: unknown catalog")

// Repository provides access to the playlist binding database.
type Repository struct {
	db *gorm.DB
}

var (
	_ bot.BindingRepository = (*Repository)(nil)
	_ bot.StatRepository    = (*Repository)(nil)
)

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ChatModel{}, &BotStatModel{}); err != nil {
		return nil, err
	}
	if err := migrateLegacyPlaylistColumn(db); err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// ConfigurePool updates the database connection pool settings.
func (r *Repository) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if maxOpen >= 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime >= 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

// migrateLegacyPlaylistColumn copies the single playlist_id column of older
// databases into the spotify column, which is the catalog it always referred to.
func migrateLegacyPlaylistColumn(db *gorm.DB) error {
	var columnExists bool
	if err := db.Raw("SELECT COUNT(*) > 0 FROM pragma_table_info('chats') WHERE name='playlist_id'").Scan(&columnExists).Error; err != nil {
		return fmt.Errorf("check playlist_id column: %w", err)
	}
	if !columnExists {
		return nil
	}

	if err := db.Exec("UPDATE chats SET spotify_playlist_id = playlist_id WHERE spotify_playlist_id IS NULL AND playlist_id IS NOT NULL AND playlist_id != ''").Error; err != nil {
		return fmt.Errorf("copy legacy playlist_id: %w", err)
	}
	return nil
}

// GetBinding returns the playlist bound to a chat for one catalog.
func (r *Repository) GetBinding(ctx context.Context, chatID, catalog string) (string, bool, error) {
	if _, ok := playlistColumn(catalog); !ok {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownCatalog, catalog)
	}
	var model ChatModel
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	id, ok := toBinding(model).PlaylistFor(strings.ToLower(strings.TrimSpace(catalog)))
	return id, ok, nil
}

// SetBinding stores the playlist for one catalog. Other catalogs' columns are left untouched.
func (r *Repository) SetBinding(ctx context.Context, chatID, chatName, catalog, playlistID string) error {
	column, ok := playlistColumn(catalog)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCatalog, catalog)
	}
	chatID = strings.TrimSpace(chatID)
	playlistID = strings.TrimSpace(playlistID)
	if chatID == "" {
		return errors.New("chat id required")
	}
	if playlistID == "" {
		return errors.New("playlist id required")
	}

	model := ChatModel{ChatID: chatID, ChatName: chatName}
	*model.playlistField(catalog) = &playlistID

	assignments := []string{column, "updated_at"}
	if strings.TrimSpace(chatName) != "" {
		assignments = append(assignments, "chat_name")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns(assignments),
	}).Create(&model).Error
}

// GetChat returns the full binding row of a chat, or nil when the chat is unknown.
func (r *Repository) GetChat(ctx context.Context, chatID string) (*bot.ChatBinding, error) {
	var model ChatModel
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toBinding(model), nil
}

// EnsureChat creates an empty row for a chat if it does not exist yet.
func (r *Repository) EnsureChat(ctx context.Context, chatID, chatName string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return errors.New("chat id required")
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoNothing: true,
	}
	if strings.TrimSpace(chatName) != "" {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"chat_name"}),
		}
	}
	return r.db.WithContext(ctx).Clauses(onConflict).Create(&ChatModel{ChatID: chatID, ChatName: chatName}).Error
}

// CountChats returns the number of known chats.
func (r *Repository) CountChats(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ChatModel{}).Count(&count).Error
	return count, err
}

// GetStat returns a counter value, zero when never incremented.
func (r *Repository) GetStat(ctx context.Context, key string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("repository not configured")
	}
	var stat BotStatModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return stat.Value, nil
}

// IncrementStat increments a counter by one.
func (r *Repository) IncrementStat(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return errors.New("repository not configured")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BotStatModel{}).Where("key = ?", key).UpdateColumn("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(&BotStatModel{Key: key, Value: 1}).Error
	})
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
