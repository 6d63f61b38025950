package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
	Timers     Timers `yaml:"timers"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Game holds the board geometry and room seat limits.
type Game struct {
	BoardSize  int `yaml:"board-size" env-default:"15"`
	WinLength  int `yaml:"win-length" env-default:"5"`
	MinPlayers int `yaml:"min-players" env-default:"2"`
	MaxPlayers int `yaml:"max-players" env-default:"8"`
}

// Timers holds every countdown the engine runs, in seconds. TurnTime is the
// default for rooms that don't override it at creation.
type Timers struct {
	TurnTimeSeconds          int `yaml:"turn-time-seconds" env-default:"60"`
	HeartbeatIntervalSeconds int `yaml:"heartbeat-interval-seconds" env-default:"5"`
	HeartbeatGraceSeconds    int `yaml:"heartbeat-grace-seconds" env-default:"30"`
	DisconnectGraceSeconds   int `yaml:"disconnect-grace-seconds" env-default:"60"`
}

func (that *Timers) TurnTime() time.Duration {
	return time.Duration(that.TurnTimeSeconds) * time.Second
}

func (that *Timers) HeartbeatInterval() time.Duration {
	return time.Duration(that.HeartbeatIntervalSeconds) * time.Second
}

func (that *Timers) HeartbeatGrace() time.Duration {
	return time.Duration(that.HeartbeatGraceSeconds) * time.Second
}

func (that *Timers) DisconnectGrace() time.Duration {
	return time.Duration(that.DisconnectGraceSeconds) * time.Second
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
