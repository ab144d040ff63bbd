// Package filter is the portal's view of the traffic gate. The web app only
// talks to a Backend; which one runs is chosen by configuration.
package filter

import (
	"errors"
	"fmt"

	"hotspotgate/internal/config"
	"hotspotgate/internal/metrics"
	"hotspotgate/internal/models"

	"github.com/sirupsen/logrus"
)

// Backend is what the portal needs from the gate.
type Backend interface {
	// InitialSetup installs the capture topology if it is missing.
	InitialSetup() bool
	// AckClientRegistration lets ip through the gate.
	AckClientRegistration(ip string) bool
	// GetIdentifierFor returns ip's hardware address, or
	// config.DefaultHardwareID when it cannot be found.
	GetIdentifierFor(ip string) string
	IsClientActive(ip string) bool
}

// PasslistManager is implemented by backends that can administer the
// passlist beyond granting.
type PasslistManager interface {
	Entries() ([]models.PasslistEntry, error)
	Lookup(ip string) string
	Revoke(ip string) bool
	Prune(activeOnly bool) bool
}

// Warmer is implemented by backends with start-up work that must run once per
// process, whether or not the topology is installed.
type Warmer interface {
	WarmUp()
}

// WarmUp runs b's start-up work when it has any.
func WarmUp(b Backend) {
	if w, ok := b.(Warmer); ok {
		w.WarmUp()
	}
}

var ErrUnknownBackend = errors.New("unknown filter backend")

// New builds the backend named by cfg.FilterBackend.
func New(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics) (Backend, error) {
	switch cfg.FilterBackend {
	case "netfilter":
		return NewNetfilter(cfg, log, m)
	case "", "dummy":
		return NewDummy(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.FilterBackend)
	}
}
