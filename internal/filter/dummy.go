package filter

import (
	"hotspotgate/internal/config"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/models"

	"github.com/sirupsen/logrus"
)

// Dummy implements the backend API without touching the system. It is meant
// for working on the web app.
type Dummy struct {
	log logrus.FieldLogger
}

func NewDummy(log logrus.FieldLogger) *Dummy {
	return &Dummy{log: logging.Component(log, "dummy-filter")}
}

func (d *Dummy) InitialSetup() bool {
	d.log.Info("called InitialSetup")
	return true
}

func (d *Dummy) AckClientRegistration(ip string) bool {
	d.log.WithField("ip", ip).Info("called AckClientRegistration")
	return true
}

func (d *Dummy) GetIdentifierFor(ip string) string {
	d.log.WithField("ip", ip).Info("called GetIdentifierFor")
	return config.DefaultHardwareID
}

func (d *Dummy) IsClientActive(ip string) bool {
	d.log.WithField("ip", ip).Info("called IsClientActive")
	return false
}

func (d *Dummy) Entries() ([]models.PasslistEntry, error) {
	d.log.Info("called Entries")
	return []models.PasslistEntry{}, nil
}

func (d *Dummy) Lookup(ip string) string {
	d.log.WithField("ip", ip).Info("called Lookup")
	return ""
}

func (d *Dummy) Revoke(ip string) bool {
	d.log.WithField("ip", ip).Info("called Revoke")
	return false
}

func (d *Dummy) Prune(activeOnly bool) bool {
	d.log.WithField("active_only", activeOnly).Info("called Prune")
	return true
}
