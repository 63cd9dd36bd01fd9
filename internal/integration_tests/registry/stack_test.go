package registry

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	auditservice "shelterhub/internal/audit/service"
	authhandler "shelterhub/internal/auth/handler"
	authservice "shelterhub/internal/auth/service"
	"shelterhub/internal/auth/store/revocation"
	"shelterhub/internal/auth/token"
	"shelterhub/internal/broadcast"
	"shelterhub/internal/identity/secrets"
	idstore "shelterhub/internal/identity/store"
	"shelterhub/internal/platform/logger"
	"shelterhub/internal/platform/metrics"
	registryhandler "shelterhub/internal/registry/handler"
	registryservice "shelterhub/internal/registry/service"
	shelterservice "shelterhub/internal/shelter/service"
	httptransport "shelterhub/internal/transport/http"
)

const adminKey = "admin-key"

// stack is the whole server behind an httptest listener.
type stack struct {
	t   *testing.T
	srv *httptest.Server
	hub *broadcast.Hub
}

func newStack(t *testing.T, stores shelterservice.Stores, txRunner shelterservice.TxRunner) *stack {
	t.Helper()
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c1Hash, err := secrets.Hash("pw-c1")
	require.NoError(t, err)
	c2Hash, err := secrets.Hash("pw-c2")
	require.NoError(t, err)
	identities := idstore.NewInMemoryStore(
		idstore.Identity{ID: "c1", Email: "c1@example.com", DisplayName: "Company One", PasswordHash: c1Hash},
		idstore.Identity{ID: "c2", Email: "c2@example.com", DisplayName: "Company Two", PasswordHash: c2Hash},
	)

	tokens := token.NewJWTService("integration-signing-key", "shelterhub", time.Hour)
	guard := authservice.New(identities, revocation.NewInMemoryTRL(), tokens, secrets.Verify,
		authservice.WithMetrics(m),
		authservice.WithAdminKey(adminKey),
	)
	shelters := shelterservice.New(txRunner, stores, guard, shelterservice.WithMetrics(m))
	hub := broadcast.NewHub(broadcast.WithMetrics(m))
	t.Cleanup(hub.Close)
	registry := registryservice.New(guard, shelters, auditservice.New(stores.Audit.(auditservice.Store)), hub)

	router := httptransport.NewRouter(log, httptransport.Config{Gatherer: reg},
		authhandler.New(guard, log, nil),
		registryhandler.New(registry, log),
		broadcast.NewHandler(hub, guard, broadcast.HandlerConfig{}, log),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &stack{t: t, srv: srv, hub: hub}
}

func (s *stack) login(username, password string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/token", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, resp.status, string(resp.body))
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(resp.body, &out))
	return out.AccessToken
}

type response struct {
	status int
	body   []byte
}

func (s *stack) do(method, path, bearer string, body any) response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)
	return response{status: res.StatusCode, body: raw}
}

// subscribe opens a live connection and waits until the hub counts it.
func (s *stack) subscribe() *websocket.Conn {
	s.t.Helper()
	before := s.hub.Len()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/shelters"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(s.t, func() bool { return s.hub.Len() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]any
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

// expectSilence asserts nothing arrives within a short window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}
