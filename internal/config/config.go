package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Network     NetworkConfig     `toml:"network"`
	Replication ReplicationConfig `toml:"replication"`
	Match       MatchConfig       `toml:"match"`
	Data        DataConfig        `toml:"data"`
	Scenario    ScenarioConfig    `toml:"scenario"`
	Logging     LoggingConfig     `toml:"logging"`
}

type NetworkConfig struct {
	ServerAddress       string        `toml:"server_address"`
	ServerPort          int           `toml:"server_port"`
	KeepaliveInterval   time.Duration `toml:"keepalive_interval"`
	Timeout             time.Duration `toml:"timeout"`
	InQueueSize         int           `toml:"in_queue_size"`
	MaxPacketsPerTick   int           `toml:"max_packets_per_tick"` // 0 = unbounded drain
	DisconnectOnTimeout bool          `toml:"disconnect_on_timeout"`
}

type ReplicationConfig struct {
	TileSize      float64       `toml:"tile_size"` // local units per grid cell
	StatsInterval time.Duration `toml:"stats_interval"`
}

type MatchConfig struct {
	Enabled          bool          `toml:"enabled"`
	MatchID          string        `toml:"match_id"`
	AuthToken        string        `toml:"auth_token"`
	Host             string        `toml:"host"`
	Port             int           `toml:"port"`
	ReconnectInitial time.Duration `toml:"reconnect_initial"`
	ReconnectMax     time.Duration `toml:"reconnect_max"`
	MaxRetries       int           `toml:"max_retries"`
}

type DataConfig struct {
	TileTable    string `toml:"tile_table"`
	MonsterTable string `toml:"monster_table"`
}

type ScenarioConfig struct {
	Enabled    bool   `toml:"enabled"`
	ScriptsDir string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // "json" or "console"
	File       string `toml:"file"`   // empty = stderr only
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Network: NetworkConfig{
			ServerAddress:     "127.0.0.1",
			ServerPort:        5000,
			KeepaliveInterval: 50 * time.Millisecond, // 20 Hz
			Timeout:           5 * time.Second,
			InQueueSize:       1024,
			MaxPacketsPerTick: 0,
		},
		Replication: ReplicationConfig{
			TileSize:      100,
			StatsInterval: 5 * time.Second,
		},
		Match: MatchConfig{
			Host:             "127.0.0.1",
			Port:             7350,
			ReconnectInitial: time.Second,
			ReconnectMax:     30 * time.Second,
			MaxRetries:       5,
		},
		Data: DataConfig{
			TileTable:    "data/yaml/tiles.yaml",
			MonsterTable: "data/yaml/monsters.yaml",
		},
		Scenario: ScenarioConfig{
			ScriptsDir: "scripts/scenario",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}
