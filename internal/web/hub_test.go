package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/events"
)

type frame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func dialEvents(t *testing.T, ts *testServer, origin string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/events"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestEventsStreamDraftAndSessionChanges(t *testing.T) {
	ts := newTestServer(t)
	conn := dialEvents(t, ts, "http://localhost:3003")

	hello := readFrame(t, conn)
	require.Equal(t, events.Connected, hello.Type)
	assert.Equal(t, 1, ts.hub.ClientCount())

	resp, _ := ts.do(t, http.MethodPost, "/api/conversation/editing", `{"editing":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session := readFrame(t, conn)
	require.Equal(t, events.Session, session.Type)
	var sessionData map[string]any
	require.NoError(t, json.Unmarshal(session.Data, &sessionData))
	assert.Equal(t, true, sessionData["editing"])
	assert.Equal(t, string(domain.SessionReasonEditingStarted), sessionData["reason"])
	assert.Equal(t, "Editing", sessionData["message"])
	assert.NotZero(t, session.Timestamp)

	resp, _ = ts.do(t, http.MethodPut, "/api/conversation/draft", `{"text":"猫"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	draft := readFrame(t, conn)
	require.Equal(t, events.Draft, draft.Type)
	assert.JSONEq(t, `{"draft":"猫"}`, string(draft.Data))
}

func TestEventsStreamErrors(t *testing.T) {
	ts := newTestServer(t)
	conn := dialEvents(t, ts, "")
	readFrame(t, conn)

	resp, _ := ts.do(t, http.MethodPost, "/api/translation/translate", `{"word":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	f := readFrame(t, conn)
	require.Equal(t, events.Error, f.Type)
	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	assert.Equal(t, "translation", data["view"])
	assert.Equal(t, "validation", data["code"])
}

func TestEventsRejectForeignOrigin(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/events"
	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHubDropsClientsOnClose(t *testing.T) {
	ts := newTestServer(t)
	conn := dialEvents(t, ts, "")
	readFrame(t, conn)

	ts.hub.Close()
	assert.Equal(t, 0, ts.hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3003"})

	cases := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{name: "no origin", origin: "", host: "127.0.0.1:3003", want: true},
		{name: "allowed", origin: "http://localhost:3003", host: "127.0.0.1:3003", want: true},
		{name: "same host", origin: "http://127.0.0.1:3003", host: "127.0.0.1:3003", want: true},
		{name: "foreign", origin: "http://evil.test", host: "127.0.0.1:3003", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "http://"+tc.host+"/events", nil)
			require.NoError(t, err)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, check(req))
		})
	}

	assert.True(t, originChecker([]string{"*"})(&http.Request{Header: http.Header{"Origin": []string{"http://any.test"}}}))
}
