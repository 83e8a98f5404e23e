// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"tuner/internal/analysis"
	applog "tuner/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketTransport broadcasts detections as JSON text messages to every
// client connected on /ws.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	shutdown  bool // Set under clientsMu once Close has disconnected clients.
	broadcast chan analysis.Detection
	server    *http.Server
	listener  net.Listener
	done      chan struct{} // Closed when the broadcast loop exits.

	closeMu sync.Mutex
	closed  bool
}

// NewWebSocketTransport listens on addr and starts serving. Use ":0" to pick
// a free port; Addr reports the bound address.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Any origin may watch the tuner
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan analysis.Detection, 256),
		listener:  ln,
		done:      make(chan struct{}),
	}

	wst.start()
	return wst, nil
}

// start begins the WebSocket server
func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)

	wst.server = &http.Server{
		Handler: mux,
	}

	go func() {
		applog.Infof("WebSocketTransport: Serving detections on ws://%s/ws", wst.listener.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	go wst.handleBroadcasts()
}

// Addr returns the address the server is bound to.
func (wst *WebSocketTransport) Addr() string {
	return wst.listener.Addr().String()
}

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	if wst.shutdown {
		// http.Server.Close does not reach hijacked connections.
		wst.clientsMu.Unlock()
		conn.Close()
		return
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Clients never send anything meaningful; a read error means they left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		if wst.clients[conn] {
			delete(wst.clients, conn)
			conn.Close()
		}
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}()
}

// handleBroadcasts sends messages to all connected clients
func (wst *WebSocketTransport) handleBroadcasts() {
	defer close(wst.done)
	for d := range wst.broadcast {
		wst.clientsMu.Lock()
		for client := range wst.clients {
			if err := client.WriteJSON(d); err != nil {
				applog.Warnf("WebSocketTransport: Error sending to client: %v", err)
				client.Close()
				delete(wst.clients, client)
			}
		}
		wst.clientsMu.Unlock()
	}
}

// Send queues d for broadcast. When the queue is full the detection is
// dropped so the pipeline never waits on slow clients.
func (wst *WebSocketTransport) Send(d analysis.Detection) error {
	wst.closeMu.Lock()
	defer wst.closeMu.Unlock()

	if wst.closed {
		return ErrClosed
	}
	select {
	case wst.broadcast <- d:
	default:
		applog.Debugf("WebSocketTransport: Queue full, detection dropped")
	}
	return nil
}

// Close shuts down the server and disconnects all clients.
func (wst *WebSocketTransport) Close() error {
	wst.closeMu.Lock()
	if wst.closed {
		wst.closeMu.Unlock()
		return nil
	}
	wst.closed = true
	close(wst.broadcast)
	wst.closeMu.Unlock()

	<-wst.done
	applog.Debugf("WebSocketTransport: Closing server")

	// Stop accepting first, then disconnect whoever registered meanwhile.
	err := wst.server.Close()

	wst.clientsMu.Lock()
	wst.shutdown = true
	for client := range wst.clients {
		client.Close()
	}
	wst.clients = make(map[*websocket.Conn]bool)
	wst.clientsMu.Unlock()

	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Sink = (*WebSocketTransport)(nil)
