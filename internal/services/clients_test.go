package services

import (
	"testing"
	"time"

	"hotspotgate/internal/database"
	"hotspotgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClientService(t *testing.T) *ClientService {
	t.Helper()
	db, err := database.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClientService(db)
}

func TestClientCreateOrUpdateKeepsMetadata(t *testing.T) {
	s := newTestClientService(t)

	c, err := s.CreateOrUpdate("02:00:00:00:00:05", "10.0.0.5", models.ClientMetadata{
		Platform: "android",
		Browser:  "Chrome",
		Language: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "android", c.Platform)
	assert.Nil(t, c.RegisteredOn)

	c, err = s.CreateOrUpdate("02:00:00:00:00:05", "10.0.0.6", models.ClientMetadata{Browser: "Firefox"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.6", c.IPAddr)
	assert.Equal(t, "android", c.Platform)
	assert.Equal(t, "Firefox", c.Browser)
	assert.Equal(t, "fr", c.Language)
}

func TestClientRegister(t *testing.T) {
	s := newTestClientService(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Register("02:00:00:00:00:05")
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = s.CreateOrUpdate("02:00:00:00:00:05", "10.0.0.5", models.ClientMetadata{})
	require.NoError(t, err)

	c, err := s.Register("02:00:00:00:00:05")
	require.NoError(t, err)
	require.NotNil(t, c.RegisteredOn)
	assert.True(t, c.RegisteredOn.Equal(now))
	assert.True(t, c.IsRegistered(now.Add(time.Minute), time.Hour))
	assert.False(t, c.IsRegistered(now.Add(2*time.Hour), time.Hour))
}

func TestClientGetAndList(t *testing.T) {
	s := newTestClientService(t)

	_, err := s.Get("02:00:00:00:00:01")
	assert.ErrorIs(t, err, ErrClientNotFound)

	for _, hw := range []string{"02:00:00:00:00:01", "02:00:00:00:00:02"} {
		_, err := s.CreateOrUpdate(hw, "10.0.0.1", models.ClientMetadata{})
		require.NoError(t, err)
	}

	clients, err := s.List()
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}
