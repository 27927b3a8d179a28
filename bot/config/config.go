// Package config loads the bot configuration from an ini file, environment
// variables and built-in defaults, in that order of precedence after env.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/spotelegramify/spotelegramify-go/bot"
	"gopkg.in/ini.v1"
)

// EnvPrefix is prepended to every key looked up in the environment.
const EnvPrefix = "SPOTELEGRAMIFY"

const pluginSectionPrefix = "plugins."

// PluginConfig holds the raw keys of one [plugins.<name>] section.
type PluginConfig map[string]interface{}

// Config wraps viper and provides typed accessors.
type Config struct {
	v       *viper.Viper
	plugins map[string]PluginConfig
	path    string
}

var _ bot.Config = (*Config)(nil)

// Load reads an INI config file and prepares defaults.
// A missing file is not an error: values then come from the environment and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	bindLegacyEnv(v)
	setDefaults(v)

	c := &Config{v: v, plugins: make(map[string]PluginConfig), path: strings.TrimSpace(path)}
	if c.path == "" {
		return c, nil
	}
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		c.path = ""
		return c, nil
	}

	if !strings.EqualFold(filepath.Ext(c.path), ".ini") {
		v.SetConfigFile(c.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return c, nil
	}

	file, err := LoadINI(c.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			for _, key := range section.Keys() {
				v.Set(key.Name(), key.Value())
			}
			continue
		}
		if plugin, ok := strings.CutPrefix(name, pluginSectionPrefix); ok && plugin != "" {
			values := make(PluginConfig, len(section.Keys()))
			for _, key := range section.Keys() {
				values[key.Name()] = key.Value()
			}
			c.plugins[plugin] = values
		}
	}
	return c, nil
}

// LoadINI parses an ini file keeping ';' inside values, so id lists such as
// "1;2;3" survive.
func LoadINI(path string) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
}

// legacyEnv lists keys that are also read from their unprefixed variable.
// The prefixed variable wins when both are set.
var legacyEnv = []string{
	"SPOTIFY_CLIENT_ID",
	"SPOTIFY_CLIENT_SECRET",
	"SPOTIFY_REFRESH_TOKEN",
	"CLIENT_ID",
	"CLIENT_SECRET",
	"TIDAL_CLIENT_ID",
	"TIDAL_CLIENT_SECRET",
	"TIDAL_ACCESS_TOKEN",
	"TIDAL_REFRESH_TOKEN",
}

func bindLegacyEnv(v *viper.Viper) {
	for _, key := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+key, key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BotAPI", "https://api.telegram.org")
	v.SetDefault("BotDebug", false)
	v.SetDefault("Database", "spotelegramify.db")
	v.SetDefault("DBMaxOpenConns", 1)
	v.SetDefault("DBMaxIdleConns", 1)
	v.SetDefault("DBConnMaxLifetimeSec", 3600)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogSource", false)
	v.SetDefault("LogDir", "./log")
	v.SetDefault("GormLogLevel", "warn")
	v.SetDefault("WorkerPoolSize", 1)
	v.SetDefault("RateLimitPerSecond", 1.0)
	v.SetDefault("RateLimitBurst", 3)
	v.SetDefault("EnableWhitelist", false)
	v.SetDefault("WhitelistChatIDs", "")
	v.SetDefault("CatalogTimeoutSec", 15)
	v.SetDefault("PollTimeoutSec", 30)
}

// Path returns the file the config was read from, empty when running on env only.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) GetString(key string) string   { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }
func (c *Config) GetBool(key string) bool       { return c.v.GetBool(key) }

// GetIntSlice is GetInt64List narrowed to int.
func (c *Config) GetIntSlice(key string) []int {
	ids := c.GetInt64List(key)
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// GetInt64List parses ids separated by commas, semicolons or blanks, e.g. admin
// user ids or whitelisted chat ids. Entries that are not integers are dropped.
func (c *Config) GetInt64List(key string) []int64 {
	fields := strings.FieldsFunc(c.v.GetString(key), func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	out := make([]int64, 0, len(fields))
	for _, field := range fields {
		if id, err := strconv.ParseInt(field, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// FirstString returns the first non-empty value among keys.
func (c *Config) FirstString(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.v.GetString(key)); value != "" {
			return value
		}
	}
	return ""
}

// GetPluginConfig returns the raw section of a plugin.
func (c *Config) GetPluginConfig(name string) (PluginConfig, bool) {
	values, ok := c.plugins[name]
	return values, ok
}

func (c *Config) pluginValue(plugin, key string) (interface{}, bool) {
	values, ok := c.plugins[plugin]
	if !ok {
		return nil, false
	}
	value, ok := values[key]
	return value, ok
}

// GetPluginString returns "" for a missing plugin or key.
func (c *Config) GetPluginString(plugin, key string) string {
	value, _ := c.pluginValue(plugin, key)
	return strings.TrimSpace(cast.ToString(value))
}

// GetPluginStringOr returns the plugin value, falling back to root keys
// (and therefore to SPOTELEGRAMIFY_* environment variables) when it is empty.
func (c *Config) GetPluginStringOr(plugin, key string, rootKeys ...string) string {
	if value := c.GetPluginString(plugin, key); value != "" {
		return value
	}
	return c.FirstString(rootKeys...)
}

// GetPluginInt returns 0 for a missing or malformed value.
func (c *Config) GetPluginInt(plugin, key string) int {
	value, _ := c.pluginValue(plugin, key)
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToInt(value)
}

// GetPluginBool returns false for a missing or malformed value.
func (c *Config) GetPluginBool(plugin, key string) bool {
	value, _ := c.pluginValue(plugin, key)
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToBool(value)
}

// PluginEnabled reports whether a plugin should be loaded. Only an explicit
// "enabled" key turns a plugin off.
func (c *Config) PluginEnabled(plugin string) bool {
	if _, ok := c.pluginValue(plugin, "enabled"); !ok {
		return true
	}
	return c.GetPluginBool(plugin, "enabled")
}
