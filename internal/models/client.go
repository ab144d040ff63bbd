package models

import (
	"strings"
	"time"
)

// Client is a device seen by the portal, keyed by its hardware address.
type Client struct {
	HWAddr         string     `json:"hw_addr"`
	IPAddr         string     `json:"ip_addr"`
	Platform       string     `json:"platform,omitempty"`
	System         string     `json:"system,omitempty"`
	SystemVersion  string     `json:"system_version,omitempty"`
	Browser        string     `json:"browser,omitempty"`
	BrowserVersion string     `json:"browser_version,omitempty"`
	Language       string     `json:"language,omitempty"`
	LastSeenOn     time.Time  `json:"last_seen_on"`
	RegisteredOn   *time.Time `json:"registered_on,omitempty"`
}

// ClientMetadata is what the portal learns about a client from its request.
type ClientMetadata struct {
	Platform       string
	System         string
	SystemVersion  string
	Browser        string
	BrowserVersion string
	Language       string
}

// IsRegistered reports whether the registration is still within timeout.
func (c *Client) IsRegistered(now time.Time, timeout time.Duration) bool {
	if c.RegisteredOn == nil {
		return false
	}
	return !now.Before(*c.RegisteredOn) && now.Sub(*c.RegisteredOn) < timeout
}

func (c *Client) IsApple() bool {
	switch strings.ToLower(c.Platform) {
	case "apple", "macos", "iphone", "ipad":
		return true
	}
	return false
}

// ActionRequired reports whether the client's platform makes the user copy the
// portal URL into a browser by hand.
func (c *Client) ActionRequired() bool {
	return !c.IsApple() && strings.ToLower(c.Platform) != "windows"
}
