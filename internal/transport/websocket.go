// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "ledvu/internal/log"

	"github.com/gorilla/websocket"
)

// writeWait bounds each client write so a stalled client is dropped instead
// of holding up the broadcast.
const writeWait = time.Second

// WebSocketTransport broadcasts every record as JSON to the clients
// connected on /ws.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	listener  net.Listener
	server    *http.Server

	writeTimeout time.Duration
	targets      []*websocket.Conn // Broadcast goroutine only

	closeOnce sync.Once
	done      chan struct{}
}

// NewWebSocketTransport listens on addr and starts serving.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	return newWebSocketTransport(addr, writeWait)
}

func newWebSocketTransport(addr string, writeTimeout time.Duration) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on '%s': %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Diagnostics are served to local dashboards
			},
		},
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan any, 256),
		listener:     ln,
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("WebSocketTransport: Serving diagnostics on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()
	go wst.handleBroadcasts()

	return wst, nil
}

// Addr returns the bound listen address.
func (wst *WebSocketTransport) Addr() net.Addr { return wst.listener.Addr() }

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client connected, total: %d", total)

	// Clients never send; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.drop(conn)
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: Client disconnected, total: %d", total)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case data := <-wst.broadcast:
			for _, client := range wst.snapshot() {
				_ = client.SetWriteDeadline(time.Now().Add(wst.writeTimeout))
				if err := client.WriteJSON(data); err != nil {
					applog.Debugf("WebSocketTransport: Error sending to client: %v", err)
					wst.drop(client)
				}
			}
		case <-wst.done:
			return
		}
	}
}

// snapshot copies the client set so writes happen without clientsMu held.
func (wst *WebSocketTransport) snapshot() []*websocket.Conn {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	wst.targets = wst.targets[:0]
	for client := range wst.clients {
		wst.targets = append(wst.targets, client)
	}
	return wst.targets
}

// Send queues data for broadcast, dropping it when the queue is full.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case wst.broadcast <- data:
	default:
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Debugf("WebSocketTransport: Closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		err = wst.server.Close()
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
