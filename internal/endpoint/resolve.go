package endpoint

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultPort        = 8765
	DefaultBindAddress = "127.0.0.1"

	// PortEnv and BindEnv override the configured values.
	PortEnv = "MCTELEMETRY_PORT"
	BindEnv = "MCTELEMETRY_BIND"
)

// ErrBindNotAllowed is returned when the bind address resolves to anything
// other than a loopback or the unspecified address.
var ErrBindNotAllowed = errors.New("bind address must be loopback or 0.0.0.0")

// ResolvePort picks the port from override, then PortEnv, then configured.
// Zero means "not set" for override. Whichever source wins, an out-of-range
// or unparsable value silently falls back to DefaultPort.
func ResolvePort(override, configured int) int {
	if override != 0 {
		return validPortOr(override)
	}
	if v, ok := os.LookupEnv(PortEnv); ok && strings.TrimSpace(v) != "" {
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return DefaultPort
		}
		return validPortOr(p)
	}
	return validPortOr(configured)
}

func validPortOr(p int) int {
	if p < 1 || p > 65535 {
		return DefaultPort
	}
	return p
}

// ResolveBindAddress picks the address from override, then BindEnv, then
// configured, then DefaultBindAddress. Host names are resolved. The result
// must be loopback or unspecified; anything else is an error.
func ResolveBindAddress(override, configured string) (net.IP, error) {
	desired := firstNonBlank(override, os.Getenv(BindEnv), configured, DefaultBindAddress)

	ip := net.ParseIP(desired)
	if ip == nil {
		ips, err := net.LookupIP(desired)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve bind address %q: %w", desired, err)
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("unable to resolve bind address %q", desired)
		}
		ip = ips[0]
	}
	if !ip.IsLoopback() && !ip.IsUnspecified() {
		return nil, fmt.Errorf("%w: %s", ErrBindNotAllowed, desired)
	}
	return ip, nil
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
