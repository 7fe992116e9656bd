package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const locationAPI = "https://ipapi.co/json/"

// NewToken mints the opaque bearer credential an agent identifies with for
// its whole lifetime. The orchestrator treats it as the canonical key, so a
// restarted agent with a fresh token registers as a new agent.
func NewToken() string {
	return uuid.NewString()
}

// DetectLocation asks ipapi.co where this agent runs. Best effort: on any
// failure it reports "Unknown" rather than blocking registration.
func DetectLocation(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locationAPI, nil)
	if err != nil {
		return "Unknown"
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "Unknown"
	}
	defer resp.Body.Close()

	var payload struct {
		City    string `json:"city"`
		Country string `json:"country_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "Unknown"
	}
	if payload.City == "" && payload.Country == "" {
		return "Unknown"
	}
	if payload.City == "" {
		return payload.Country
	}
	return fmt.Sprintf("%s, %s", payload.Country, payload.City)
}

// LocalIP discovers the outbound interface address by dialing a public
// resolver over UDP. No packet is sent; the kernel just picks a route.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
