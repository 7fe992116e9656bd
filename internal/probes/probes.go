// Package probes holds the single-shot network diagnostics the orchestrator
// and the agents both execute: ping, http(s), tcp, dns and traceroute. Each
// probe blocks for at most its configured timeout and reports a human-readable
// text block plus a success flag; a failing probe is data, not an error.
package probes

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/job"
)

type Report struct {
	Success bool
	Text    string
}

type Config struct {
	PingCount            int           `mapstructure:"ping_count"`
	PingTimeout          time.Duration `mapstructure:"ping_timeout"`
	HTTPTimeout          time.Duration `mapstructure:"http_timeout"`
	TCPTimeout           time.Duration `mapstructure:"tcp_timeout"`
	TCPPort              int           `mapstructure:"tcp_port"`
	DNSTimeout           time.Duration `mapstructure:"dns_timeout"`
	TracerouteMaxHops    int           `mapstructure:"traceroute_max_hops"`
	TracerouteHopTimeout time.Duration `mapstructure:"traceroute_hop_timeout"`
}

func DefaultConfig() Config {
	return Config{
		PingCount:            4,
		PingTimeout:          5 * time.Second,
		HTTPTimeout:          5 * time.Second,
		TCPTimeout:           5 * time.Second,
		TCPPort:              80,
		DNSTimeout:           5 * time.Second,
		TracerouteMaxHops:    30,
		TracerouteHopTimeout: 3 * time.Second,
	}
}

// Suite bundles the probes behind one dispatch point so callers hold a
// single value instead of five functions.
type Suite struct {
	cfg Config
}

func NewSuite(cfg Config) *Suite {
	def := DefaultConfig()
	if cfg.PingCount <= 0 {
		cfg.PingCount = def.PingCount
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
	if cfg.TCPTimeout <= 0 {
		cfg.TCPTimeout = def.TCPTimeout
	}
	if cfg.TCPPort <= 0 {
		cfg.TCPPort = def.TCPPort
	}
	if cfg.DNSTimeout <= 0 {
		cfg.DNSTimeout = def.DNSTimeout
	}
	if cfg.TracerouteMaxHops <= 0 {
		cfg.TracerouteMaxHops = def.TracerouteMaxHops
	}
	if cfg.TracerouteHopTimeout <= 0 {
		cfg.TracerouteHopTimeout = def.TracerouteHopTimeout
	}
	return &Suite{cfg: cfg}
}

// Run executes the probe matching the check type. The type is validated at
// job creation, so an unknown tag here is a programming error and reported
// as a failed probe rather than a panic.
func (s *Suite) Run(t job.CheckType, target string) Report {
	switch t {
	case job.CheckPing:
		return s.Ping(target)
	case job.CheckHTTP:
		return s.HTTPPing(target, false)
	case job.CheckHTTPS:
		return s.HTTPPing(target, true)
	case job.CheckTCP:
		return s.TCPPing(target)
	case job.CheckDNS:
		return s.DNSLookupAll(target)
	case job.CheckTraceroute:
		return s.Traceroute(target)
	}
	return Report{Success: false, Text: fmt.Sprintf("no probe for check type %q", t)}
}

// hostOf strips scheme, path and port from a target so host-level probes
// accept the same free-form input the HTTP probe does.
func hostOf(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return t
	}
	if strings.Contains(t, "://") {
		if u, err := url.Parse(t); err == nil && u.Host != "" {
			t = u.Host
		}
	}
	if i := strings.IndexByte(t, '/'); i >= 0 {
		t = t[:i]
	}
	if strings.Contains(t, ":") {
		if h, _, err := net.SplitHostPort(t); err == nil {
			return h
		}
	}
	return t
}

func failf(format string, args ...any) Report {
	return Report{Success: false, Text: fmt.Sprintf(format, args...)}
}
