package v1

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/library"
)

func TestDestinations_CRUD(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})

	w := do(t, h, http.MethodPost, "/api/v1/destinations", destinationRequest{
		Name: "seedbox", Type: "ssh", BasePath: "/srv/media",
		SSHHost: ptr("box.local"), SSHUser: ptr("media"), SSHKeyPassphrase: ptr("hunter2"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[destinationResponse](t, w)
	assert.True(t, created.HasPassphrase)
	assert.NotContains(t, w.Body.String(), "hunter2")

	w = do(t, h, http.MethodGet, "/api/v1/destinations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]destinationResponse](t, w), 1)

	// omitted passphrase keeps the stored one
	w = do(t, h, http.MethodPut, "/api/v1/destinations/"+itoa(created.ID), destinationRequest{
		Name: "seedbox", Type: "ssh", BasePath: "/srv/library",
		SSHHost: ptr("box.local"), SSHUser: ptr("media"), SSHPort: ptr(2222),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d, err := store.GetDestination(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/srv/library", d.BasePath)
	assert.Equal(t, 2222, d.Port())
	require.NotNil(t, d.SSHKeyPassphrase)
	assert.Equal(t, "hunter2", *d.SSHKeyPassphrase)

	w = do(t, h, http.MethodDelete, "/api/v1/destinations/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/api/v1/destinations/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDestinations_Validation(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})

	tests := []struct {
		name string
		req  destinationRequest
	}{
		{"missing name", destinationRequest{BasePath: "/x"}},
		{"local without path", destinationRequest{Name: "a"}},
		{"ssh without host", destinationRequest{Name: "a", Type: "ssh", SSHUser: ptr("u")}},
		{"ssh without user", destinationRequest{Name: "a", Type: "ssh", SSHHost: ptr("h")}},
		{"unknown type", destinationRequest{Name: "a", Type: "ftp", BasePath: "/x"}},
		{"bad port", destinationRequest{Name: "a", BasePath: "/x", SSHPort: ptr(70000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/destinations", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_DESTINATION", decode[errorResponse](t, w).Code)
		})
	}
}

func TestDestinations_DuplicateName(t *testing.T) {
	store := setupStore(t)
	_, h := newTestServer(t, ServerDeps{Library: store})

	req := destinationRequest{Name: "nas", BasePath: t.TempDir()}
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/destinations", req).Code)
	w := do(t, h, http.MethodPost, "/api/v1/destinations", req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTestDestination(t *testing.T) {
	store := setupStore(t)
	dialErr := errors.New("connection refused")
	dial := func(context.Context, *library.Destination) (*sftp.Client, io.Closer, error) {
		return nil, nil, dialErr
	}
	_, h := newTestServer(t, ServerDeps{Library: store, Dial: dial})

	local := &library.Destination{Name: "local", Type: library.DestinationLocal, BasePath: t.TempDir()}
	require.NoError(t, store.AddDestination(local))
	missing := &library.Destination{Name: "gone", Type: library.DestinationLocal, BasePath: "/does/not/exist"}
	require.NoError(t, store.AddDestination(missing))
	remote := &library.Destination{Name: "remote", Type: library.DestinationSSH, BasePath: "/srv",
		SSHHost: ptr("h"), SSHUser: ptr("u")}
	require.NoError(t, store.AddDestination(remote))

	w := do(t, h, http.MethodPost, "/api/v1/destinations/"+itoa(local.ID)+"/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[testConnectionResponse](t, w).OK)

	w = do(t, h, http.MethodPost, "/api/v1/destinations/"+itoa(missing.ID)+"/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[testConnectionResponse](t, w).OK)

	w = do(t, h, http.MethodPost, "/api/v1/destinations/"+itoa(remote.ID)+"/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[testConnectionResponse](t, w)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "connection refused")

	w = do(t, h, http.MethodPost, "/api/v1/destinations/999/test", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
