// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tuner/internal/analysis"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return wst.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond, "client never registered")
	return conn
}

func TestWebSocketTransportBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	defer wst.Close()

	conn := dialTestServer(t, wst)

	want := analysis.Detection{Frequency: 440.4297, Bin: 451, Magnitude: 1234.5, Note: "A", Pitch: 440, Cents: 1.69, Found: true}
	require.NoError(t, wst.Send(want))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got analysis.Detection
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, want, got)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msg, &raw))
	assert.Equal(t, "A", raw["note"])
	assert.Equal(t, true, raw["found"])
	assert.NotContains(t, raw, "gated")
}

func TestWebSocketTransportClientDisconnect(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	defer wst.Close()

	conn := dialTestServer(t, wst)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return wst.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
	assert.NoError(t, wst.Send(analysis.Detection{}))
}

func TestWebSocketTransportClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	conn := dialTestServer(t, wst)

	require.NoError(t, wst.Close())
	assert.NoError(t, wst.Close())
	assert.ErrorIs(t, wst.Send(analysis.Detection{}), ErrClosed)
	assert.Equal(t, 0, wst.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server side closed the connection")
}

func TestWebSocketTransportUpgradeAfterClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, wst.Close())

	// A handshake that was already being served when Close ran.
	late := httptest.NewServer(http.HandlerFunc(wst.handleWebSocket))
	defer late.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(late.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "late client is disconnected")
	assert.Equal(t, 0, wst.ClientCount())
}

func TestWebSocketTransportListenError(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	require.NoError(t, err)
	defer wst.Close()

	_, err = NewWebSocketTransport(wst.Addr())
	assert.Error(t, err)
}
