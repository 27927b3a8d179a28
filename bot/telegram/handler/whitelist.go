package handler

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/spotelegramify/spotelegramify-go/bot/config"
	"gopkg.in/ini.v1"
)

const whitelistKey = "WhitelistChatIDs"

// Whitelist limits the bot to approved chats when enabled. Messages from admins
// pass in any chat so they can approve it.
type Whitelist struct {
	mu      sync.RWMutex
	enabled bool
	chats   map[int64]struct{}
	admins  map[int64]struct{}
	iniPath string
}

func NewWhitelist(enabled bool, chatIDs map[int64]struct{}, adminIDs map[int64]struct{}, configPath string) *Whitelist {
	return &Whitelist{
		enabled: enabled,
		chats:   cloneSet(chatIDs),
		admins:  cloneSet(adminIDs),
		iniPath: strings.TrimSpace(configPath),
	}
}

func cloneSet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in))
	for id := range in {
		out[id] = struct{}{}
	}
	return out
}

// IsAllowed reports whether a message from userID in chatID may be handled.
// A nil or disabled whitelist allows everything.
func (w *Whitelist) IsAllowed(chatID, userID int64) bool {
	if w == nil {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.enabled {
		return true
	}
	_, admin := w.admins[userID]
	_, approved := w.chats[chatID]
	return admin || approved
}

// Add approves a chat and reports whether it was new.
func (w *Whitelist) Add(chatID int64) bool {
	return w.update(chatID, true)
}

// Remove revokes a chat and reports whether it was approved.
func (w *Whitelist) Remove(chatID int64) bool {
	return w.update(chatID, false)
}

func (w *Whitelist) update(chatID int64, approve bool) bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, present := w.chats[chatID]
	if present == approve {
		return false
	}
	if approve {
		w.chats[chatID] = struct{}{}
	} else {
		delete(w.chats, chatID)
	}
	return true
}

// List returns the approved chats in ascending order.
func (w *Whitelist) List() []int64 {
	if w == nil {
		return nil
	}
	w.mu.RLock()
	ids := make([]int64, 0, len(w.chats))
	for id := range w.chats {
		ids = append(ids, id)
	}
	w.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Persist stores the approved chats under WhitelistChatIDs in the ini file the
// config was loaded from. Env-only and non-ini configs are left alone.
func (w *Whitelist) Persist() error {
	if w == nil || w.iniPath == "" || !strings.EqualFold(filepath.Ext(w.iniPath), ".ini") {
		return nil
	}
	ids := w.List()
	encoded := make([]string, len(ids))
	for i, id := range ids {
		encoded[i] = strconv.FormatInt(id, 10)
	}

	file, err := config.LoadINI(w.iniPath)
	if err != nil {
		return err
	}
	file.Section(ini.DefaultSection).Key(whitelistKey).SetValue(strings.Join(encoded, ","))
	return file.SaveTo(w.iniPath)
}
