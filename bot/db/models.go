package db

import (
	"strings"
	"time"

	"github.com/spotelegramify/spotelegramify-go/bot"
	"gorm.io/gorm"
)

// ChatModel mirrors the chats table: one row per chat, one nullable playlist column per catalog.
type ChatModel struct {
	ChatID            string  `gorm:"primaryKey;column:chat_id"`
	ChatName          string  `gorm:"column:chat_name"`
	SpotifyPlaylistID *string `gorm:"column:spotify_playlist_id"`
	TidalPlaylistID   *string `gorm:"column:tidal_playlist_id"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ChatModel) TableName() string {
	return "chats"
}

// BotStatModel stores aggregated bot statistics.
type BotStatModel struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value int64
}

func (BotStatModel) TableName() string {
	return "bot_stats"
}

// playlistColumns maps a catalog id to its column in the chats table.
var playlistColumns = map[string]string{
	"spotify": "spotify_playlist_id",
	"tidal":   "tidal_playlist_id",
}

// Catalogs returns the catalog ids the store has a column for.
func Catalogs() []string {
	return []string{"spotify", "tidal"}
}

func playlistColumn(catalog string) (string, bool) {
	column, ok := playlistColumns[strings.ToLower(strings.TrimSpace(catalog))]
	return column, ok
}

func (m *ChatModel) playlistField(catalog string) **string {
	switch strings.ToLower(strings.TrimSpace(catalog)) {
	case "spotify":
		return &m.SpotifyPlaylistID
	case "tidal":
		return &m.TidalPlaylistID
	default:
		return nil
	}
}

func toBinding(model ChatModel) *bot.ChatBinding {
	binding := &bot.ChatBinding{
		ChatID:    model.ChatID,
		ChatName:  model.ChatName,
		Playlists: make(map[string]string, len(playlistColumns)),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	for _, catalog := range Catalogs() {
		field := model.playlistField(catalog)
		if field == nil || *field == nil {
			continue
		}
		if id := strings.TrimSpace(**field); id != "" {
			binding.Playlists[catalog] = id
		}
	}
	return binding
}
