package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Names of the nat table objects owned by the gate.
const (
	TableFamily   = "ip"
	TableName     = "nat"
	ChainIngress  = "PREROUTING"
	ChainHTTP     = "CAPTIVE_HTTP"
	ChainHTTPS    = "CAPTIVE_HTTPS"
	ChainPasslist = "CAPTIVE_PASSLIST"
)

// DefaultHardwareID is returned when a client's link-layer address is unknown.
const DefaultHardwareID = "aa:bb:cc:dd:ee:ff"

// GateConfig drives the kernel side of the portal. It is read once at start
// and shared read-only by every component.
type GateConfig struct {
	PortalIP         string
	HTTPPort         int
	HTTPSPort        int
	CapturedNetworks []string
	CapturedAddress  string
}

type Config struct {
	Gate GateConfig

	FilterBackend    string
	SetupFilter      bool
	ConntrackBackend string
	ARPProbe         bool
	ARPTimeout       time.Duration
	WarmupDelay      time.Duration
	PruneSchedule    string
	PruneActiveOnly  bool

	BindTo          string
	Port            int
	HotspotName     string
	HotspotFQDN     string
	FooterNote      string
	TimeoutMinutes  int
	DataDir         string
	SessionSecret   string
	SessionMaxAge   int
	DefaultAdmin    string
	DefaultPassword string
	InternetStatus  string

	Debug     bool
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Gate: GateConfig{
			PortalIP:         getEnvString("HOTSPOT_IP", "192.168.2.1"),
			HTTPPort:         getEnvInt("HTTP_PORT", 2080),
			HTTPSPort:        getEnvInt("HTTPS_PORT", 2443),
			CapturedNetworks: splitNetworks(os.Getenv("CAPTURED_NETWORKS")),
			CapturedAddress:  getEnvString("CAPTURED_ADDRESS", "198.51.100.1/32"),
		},
		FilterBackend:    getEnvString("FILTER_BACKEND", "dummy"),
		SetupFilter:      os.Getenv("DONT_SETUP_FILTER") == "",
		ConntrackBackend: getEnvString("CONNTRACK_BACKEND", "exec"),
		ARPProbe:         getEnvBool("ARP_PROBE", true),
		ARPTimeout:       getEnvDuration("ARP_TIMEOUT", 500*time.Millisecond),
		WarmupDelay:      getEnvDuration("RESOLVER_WARMUP_DELAY", 5*time.Second),
		PruneSchedule:    getEnvString("PRUNE_SCHEDULE", "@every 15m"),
		PruneActiveOnly:  getEnvBool("PRUNE_ACTIVE_ONLY", true),

		BindTo:          getEnvString("BIND_TO", "127.0.0.1"),
		Port:            getEnvInt("PORT", 3000),
		HotspotName:     getEnvString("HOTSPOT_NAME", "default"),
		HotspotFQDN:     getEnvString("HOTSPOT_FQDN", "default.hotspot"),
		FooterNote:      os.Getenv("FOOTER_NOTE"),
		TimeoutMinutes:  getEnvInt("TIMEOUT", 60), // 1 hour
		DataDir:         getEnvString("DATA_DIR", "./data"),
		SessionSecret:   getEnvString("SESSION_SECRET", "change-me-in-production-32bytes!"),
		SessionMaxAge:   getEnvInt("SESSION_MAX_AGE", 86400), // 24 hours
		DefaultAdmin:    getEnvString("ADMIN_USER", "admin"),
		DefaultPassword: getEnvString("ADMIN_PASSWORD", "admin"),
		InternetStatus:  getEnvString("INTERNET_STATUS_FILE", "/var/run/internet"),

		Debug:     os.Getenv("DEBUG") != "",
		LogFormat: getEnvString("LOG_FORMAT", "text"),
	}

	return cfg
}

// Addr is the portal listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindTo, strconv.Itoa(c.Port))
}

// Validate checks the values that end up inside rule-engine statements.
func (g GateConfig) Validate() error {
	if !validIPv4(g.PortalIP) {
		return fmt.Errorf("invalid HOTSPOT_IP: %q", g.PortalIP)
	}
	if !validPort(g.HTTPPort) {
		return fmt.Errorf("invalid HTTP_PORT: %d", g.HTTPPort)
	}
	if !validPort(g.HTTPSPort) {
		return fmt.Errorf("invalid HTTPS_PORT: %d", g.HTTPSPort)
	}
	for _, network := range g.CapturedNetworks {
		if !validIPv4CIDR(network) {
			return fmt.Errorf("invalid CAPTURED_NETWORKS entry %q", network)
		}
	}
	if !validAddressOrCIDR(g.CapturedAddress) {
		return fmt.Errorf("invalid CAPTURED_ADDRESS: %q", g.CapturedAddress)
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

// The gate's rules live in the ip family table, so every address must be
// IPv4. IPv4-mapped IPv6 forms are rejected too.
func validIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && !strings.Contains(s, ":")
}

func validIPv4CIDR(s string) bool {
	_, network, err := net.ParseCIDR(s)
	return err == nil && len(network.Mask) == net.IPv4len
}

func validAddressOrCIDR(s string) bool {
	return validIPv4CIDR(s) || validIPv4(s)
}

// splitNetworks splits a "|" separated CIDR list, ignoring blank entries so
// that an empty variable means "capture everything".
func splitNetworks(val string) []string {
	var networks []string
	for _, part := range strings.Split(val, "|") {
		if part = strings.TrimSpace(part); part != "" {
			networks = append(networks, part)
		}
	}
	return networks
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
