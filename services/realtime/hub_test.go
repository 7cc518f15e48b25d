package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/testutil"
)

// newTestServer serves the hub, reading the organization of the client from the "org" query param.
func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, _ := strconv.Atoi(r.URL.Query().Get("org"))
		if err := hub.ServeWS(w, r, core.Actor{UserID: 1, OrganizationID: orgID, Role: core.RoleAdmin}); err != nil {
			t.Logf("ServeWS() failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, orgID int) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?org=" + strconv.Itoa(orgID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(testutil.NopLogger{}, core.NewTestConfig())
	defer hub.Close()
	srv := newTestServer(t, hub)

	acme := dial(t, srv, 1)
	globex := dial(t, srv, 2)
	require.Eventually(t, func() bool { return hub.Connections(1) == 1 && hub.Connections(2) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(core.Event{Name: "taskUpdated", OrganizationID: 1, Payload: map[string]int{"id": 7}})

	_ = acme.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := acme.ReadMessage()
	require.NoError(t, err)
	var got struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "taskUpdated", got.Event)
	assert.Equal(t, 7, got.Data["id"])

	_ = globex.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = globex.ReadMessage()
	assert.Error(t, err, "events must not leak to other organizations")

	_ = acme.Close()
	assert.Eventually(t, func() bool { return hub.Connections(1) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_CheckOrigin(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Server.CORSOrigins = []string{"http://app.attendix.test"}
	hub := NewHub(testutil.NopLogger{}, conf)
	defer hub.Close()
	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?org=1"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://app.attendix.test"}})
	require.NoError(t, err)
	_ = conn.Close()
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger{}, core.NewTestConfig())
	c := &client{id: "slow", actor: core.Actor{OrganizationID: 1}, send: make(chan []byte, 1)}
	hub.register(c)

	hub.Broadcast(core.Event{Name: "a", OrganizationID: 1})
	assert.Equal(t, 1, hub.Connections(1))
	hub.Broadcast(core.Event{Name: "b", OrganizationID: 1})
	assert.Equal(t, 0, hub.Connections(1))

	<-c.send
	_, ok := <-c.send
	assert.False(t, ok, "send channel must be closed")
}
