package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Peer     PeerConfig     `mapstructure:"peer"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
	// Heartbeat is the websocket ping interval.
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type GameConfig struct {
	MaxRounds         int           `mapstructure:"max_rounds"`
	VoteDuration      time.Duration `mapstructure:"vote_duration"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	AutoContinueDelay time.Duration `mapstructure:"auto_continue_delay"`
	RejectReplies     bool          `mapstructure:"reject_replies"`
	WordList          string        `mapstructure:"word_list"`
	MetricsNamespace  string        `mapstructure:"metrics_namespace"`
}

// PeerConfig describes the local participant.
type PeerConfig struct {
	ID   uint64 `mapstructure:"id"`
	Name string `mapstructure:"name"`
	// HostURL is the websocket endpoint a client dials, e.g. ws://host:8080/ws.
	HostURL string `mapstructure:"host_url"`
	HostID  uint64 `mapstructure:"host_id"`
}

type DatabaseConfig struct {
	// Driver is memory, gorm or postgres.
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":1234")
	v.SetDefault("server.heartbeat", 30*time.Second)

	v.SetDefault("game.max_rounds", 3)
	v.SetDefault("game.vote_duration", 5*time.Second)
	v.SetDefault("game.tick_interval", 100*time.Millisecond)
	v.SetDefault("game.auto_continue_delay", time.Duration(0))
	v.SetDefault("game.reject_replies", true)
	v.SetDefault("game.word_list", "")
	v.SetDefault("game.metrics_namespace", "impostor")

	v.SetDefault("peer.id", 1)
	v.SetDefault("peer.name", "host")
	v.SetDefault("peer.host_url", "ws://127.0.0.1:8080/ws")
	v.SetDefault("peer.host_id", 1)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "127.0.0.1")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "impostor")
}

// NewFlagSet declares the command-line overrides shared by the host and the
// client binaries.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	fs.String("config", ".", "directory holding config.yaml and .env")
	fs.Uint64("id", 0, "local peer id")
	fs.String("name", "", "display name")
	fs.String("host-url", "", "host websocket url, clients only")
	fs.String("http", "", "http listen address, host only")
	return fs
}

var flagKeys = map[string]string{
	"id":       "peer.id",
	"name":     "peer.name",
	"host-url": "peer.host_url",
	"http":     "server.http_address",
}

// LoadConfig reads path/.env (if any), then path/config.yaml (if any), then
// IMPOSTOR_* environment variables, e.g. IMPOSTOR_GAME_MAX_ROUNDS.
func LoadConfig(path string) (*Config, error) {
	return load(path, nil)
}

// LoadFromFlags is LoadConfig with the directory taken from --config and
// explicitly set flags taking precedence over everything else.
func LoadFromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	return load(path, fs)
}

func load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("IMPOSTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Peer.ID == 0 {
		return errors.New("peer.id must be non-zero")
	}
	if c.Game.MaxRounds <= 0 {
		return errors.New("game.max_rounds must be positive")
	}
	if c.Game.VoteDuration <= 0 {
		return errors.New("game.vote_duration must be positive")
	}
	switch c.Database.Driver {
	case "memory", "gorm", "postgres":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}
