package probes

import (
	"fmt"
	"strings"

	"github.com/go-ping/ping"
)

// Ping sends a small ICMP burst and reports packet loss and round-trip
// times. Unprivileged UDP mode, so it works without CAP_NET_RAW.
func (s *Suite) Ping(target string) Report {
	host := hostOf(target)
	if host == "" {
		return failf("ping: empty target")
	}

	pinger, err := ping.NewPinger(host)
	if err != nil {
		return failf("ping %s: %v", host, err)
	}
	pinger.Count = s.cfg.PingCount
	pinger.Timeout = s.cfg.PingTimeout
	pinger.SetPrivileged(false)

	if err := pinger.Run(); err != nil {
		return failf("ping %s: %v", host, err)
	}

	st := pinger.Statistics()

	var b strings.Builder
	fmt.Fprintf(&b, "PING %s (%s)\n", host, st.IPAddr)
	fmt.Fprintf(&b, "%d packets transmitted, %d received, %.0f%% packet loss\n",
		st.PacketsSent, st.PacketsRecv, st.PacketLoss)
	if st.PacketsRecv > 0 {
		fmt.Fprintf(&b, "rtt min/avg/max = %v/%v/%v\n", st.MinRtt, st.AvgRtt, st.MaxRtt)
	}

	return Report{Success: st.PacketsRecv > 0, Text: b.String()}
}
