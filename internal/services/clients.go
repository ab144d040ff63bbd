package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hotspotgate/internal/database"
	"hotspotgate/internal/models"
)

var ErrClientNotFound = errors.New("client not found")

// ClientService is the portal's registration datastore.
type ClientService struct {
	db  *database.DB
	now func() time.Time
}

func NewClientService(db *database.DB) *ClientService {
	return &ClientService{db: db, now: time.Now}
}

const clientColumns = `hw_addr, ip_addr, platform, system, system_version, browser,
	browser_version, language, last_seen_on, registered_on`

// CreateOrUpdate records a sighting of hwAddr at ip. Metadata fields that are
// empty keep their stored value.
func (s *ClientService) CreateOrUpdate(hwAddr, ip string, meta models.ClientMetadata) (*models.Client, error) {
	_, err := s.db.Exec(`
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(hw_addr) DO UPDATE SET
			ip_addr = excluded.ip_addr,
			platform = COALESCE(excluded.platform, clients.platform),
			system = COALESCE(excluded.system, clients.system),
			system_version = COALESCE(excluded.system_version, clients.system_version),
			browser = COALESCE(excluded.browser, clients.browser),
			browser_version = COALESCE(excluded.browser_version, clients.browser_version),
			language = COALESCE(excluded.language, clients.language),
			last_seen_on = excluded.last_seen_on`,
		hwAddr, ip,
		nullString(meta.Platform), nullString(meta.System), nullString(meta.SystemVersion),
		nullString(meta.Browser), nullString(meta.BrowserVersion), nullString(meta.Language),
		s.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	return s.Get(hwAddr)
}

// Register marks hwAddr as registered now.
func (s *ClientService) Register(hwAddr string) (*models.Client, error) {
	now := s.now()
	result, err := s.db.Exec(
		"UPDATE clients SET registered_on = ?, last_seen_on = ? WHERE hw_addr = ?",
		now, now, hwAddr,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register client: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, ErrClientNotFound
	}

	return s.Get(hwAddr)
}

func (s *ClientService) Get(hwAddr string) (*models.Client, error) {
	row := s.db.QueryRow("SELECT "+clientColumns+" FROM clients WHERE hw_addr = ?", hwAddr)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *ClientService) List() ([]models.Client, error) {
	rows, err := s.db.Query("SELECT " + clientColumns + " FROM clients ORDER BY last_seen_on DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *client)
	}
	return clients, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var platform, system, systemVersion sql.NullString
	var browser, browserVersion, language sql.NullString
	var registeredOn sql.NullTime

	err := row.Scan(&c.HWAddr, &c.IPAddr, &platform, &system, &systemVersion,
		&browser, &browserVersion, &language, &c.LastSeenOn, &registeredOn)
	if err != nil {
		return nil, err
	}

	c.Platform = platform.String
	c.System = system.String
	c.SystemVersion = systemVersion.String
	c.Browser = browser.String
	c.BrowserVersion = browserVersion.String
	c.Language = language.String
	if registeredOn.Valid {
		t := registeredOn.Time
		c.RegisteredOn = &t
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
