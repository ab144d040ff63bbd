package services

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SystemIsOnline reads the uplink status flag maintained by the host; the
// file holds "online" when the gateway has internet connectivity.
func SystemIsOnline(statusFile string, log logrus.FieldLogger) bool {
	data, err := os.ReadFile(statusFile)
	if err != nil {
		if log != nil {
			log.WithError(err).Error("cannot read connectivity status")
		}
		return false
	}
	return strings.TrimSpace(string(data)) == "online"
}
