package agent_config

import (
	"time"

	"github.com/NordCoder/Proberus/internal/obs"
	"github.com/NordCoder/Proberus/internal/probes"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Backend struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Runner struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ErrorBackoff      time.Duration `mapstructure:"error_backoff"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig(app App) *obs.LogConfig {
	return &obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    app.Name,
		Env:    app.Env,
		Ver:    app.Version,
	}
}

type Config struct {
	App     App           `mapstructure:"app"`
	Name    string        `mapstructure:"name"`
	Backend Backend       `mapstructure:"backend"`
	Runner  Runner        `mapstructure:"runner"`
	Log     Log           `mapstructure:"log"`
	Probes  probes.Config `mapstructure:"probes"`
}
