package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	IdleTimeoutSec int    `mapstructure:"idle_timeout_sec"`
}

type DatabaseConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Driver selects the store implementation: "gorm" (default) or "sql"
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

type GameConfig struct {
	DefaultCapacity int      `mapstructure:"default_capacity"`
	SeedRooms       []string `mapstructure:"seed_rooms"`
	Themes          []string `mapstructure:"themes"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.idle_timeout_sec", 120)
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.default_capacity", 4)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
