package agent_config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("app.name", "proberus/agent")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "dev")

	v.SetDefault("name", defaultAgentName())
	v.SetDefault("backend.url", "http://localhost:8080")
	v.SetDefault("backend.timeout", "10s")

	v.SetDefault("runner.heartbeat_interval", "30s")
	v.SetDefault("runner.poll_interval", "5s")
	v.SetDefault("runner.error_backoff", "10s")
	v.SetDefault("runner.max_concurrent", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("probes.ping_count", 4)
	v.SetDefault("probes.ping_timeout", "5s")
	v.SetDefault("probes.http_timeout", "5s")
	v.SetDefault("probes.tcp_timeout", "5s")
	v.SetDefault("probes.tcp_port", 80)
	v.SetDefault("probes.dns_timeout", "5s")
	v.SetDefault("probes.traceroute_max_hops", 30)
	v.SetDefault("probes.traceroute_hop_timeout", "3s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAgentName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("agent-%d", os.Getpid())
	}
	return "agent-" + host
}
