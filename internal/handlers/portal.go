package handlers

import (
	"net/http"
	"time"

	"hotspotgate/internal/filter"
	"hotspotgate/internal/i18n"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/models"
	"hotspotgate/internal/services"

	"github.com/sirupsen/logrus"
)

// Branding is the operator-chosen look of the portal pages.
type Branding struct {
	HotspotName    string
	FQDN           string
	FooterNote     string
	TimeoutMinutes int
}

// PortalHandler serves every request the gate redirects to the portal.
type PortalHandler struct {
	templates  TemplateExecutor
	backend    filter.Backend
	clients    *services.ClientService
	branding   Branding
	statusFile string
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewPortalHandler(templates TemplateExecutor, backend filter.Backend, clients *services.ClientService,
	branding Branding, statusFile string, log logrus.FieldLogger) *PortalHandler {
	return &PortalHandler{
		templates:  templates,
		backend:    backend,
		clients:    clients,
		branding:   branding,
		statusFile: statusFile,
		log:        logging.Component(log, "portal"),
		now:        time.Now,
	}
}

// Entrypoint answers connectivity probes of registered, active clients with
// their platform's success response; everybody else gets the portal page.
func (h *PortalHandler) Entrypoint(w http.ResponseWriter, r *http.Request) {
	client, err := h.currentClient(r)
	if err != nil {
		h.log.WithError(err).Error("failed to record client")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(logrus.Fields{
		"ip":     client.IPAddr,
		"hwaddr": client.HWAddr,
		"ua":     r.UserAgent(),
	}).Infof("IN: %s%s", r.Host, r.URL.RequestURI())

	timeout := time.Duration(h.branding.TimeoutMinutes) * time.Minute
	registered := client.IsRegistered(h.now(), timeout)
	if registered && h.backend.IsClientActive(client.IPAddr) {
		h.log.Debugf("client registered on %s", client.RegisteredOn)
		writePlatformSuccess(w, r)
		return
	}
	if registered {
		h.log.Debugf("client registered on %s but not active", client.RegisteredOn)
	}

	h.render(w, r, "portal.html", client)
}

// Register records that the client went through the portal and lets it out.
func (h *PortalHandler) Register(w http.ResponseWriter, r *http.Request) {
	client, err := h.currentClient(r)
	if err != nil {
		h.log.WithError(err).Error("failed to record client")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	client, err = h.clients.Register(client.HWAddr)
	if err != nil {
		h.log.WithError(err).Error("failed to register client")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !h.backend.AckClientRegistration(client.IPAddr) {
		h.log.Warnf("%s was not added to the passlist", client.IPAddr)
	}

	h.render(w, r, "registered.html", client)
}

// FakeRegister shows the registered page without touching the gate.
func (h *PortalHandler) FakeRegister(w http.ResponseWriter, r *http.Request) {
	client, err := h.currentClient(r)
	if err != nil {
		h.log.WithError(err).Error("failed to record client")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "registered.html", client)
}

func (h *PortalHandler) currentClient(r *http.Request) (*models.Client, error) {
	ip := getClientIP(r)
	hwAddr := h.backend.GetIdentifierFor(ip)
	return h.clients.CreateOrUpdate(hwAddr, ip, clientMetadata(r))
}

func (h *PortalHandler) render(w http.ResponseWriter, r *http.Request, page string, client *models.Client) {
	lang := i18n.MatchLanguage(r.Header.Get("Accept-Language"))

	data := map[string]interface{}{
		"Title":          h.branding.HotspotName,
		"Lang":           lang.String(),
		"P":              i18n.NewPrinter(lang),
		"Client":         client,
		"ActionRequired": client.ActionRequired(),
		"HotspotName":    h.branding.HotspotName,
		"FQDN":           h.branding.FQDN,
		"Interval":       h.branding.TimeoutMinutes,
		"FooterNote":     h.branding.FooterNote,
		"Online":         services.SystemIsOnline(h.statusFile, h.log),
	}

	if err := h.templates.ExecuteTemplate(w, page, data); err != nil {
		h.log.WithError(err).Error("template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
