package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/landingsim/internal/core/observability/log"
	"github.com/zeusync/landingsim/internal/core/sim"
	"github.com/zeusync/landingsim/pkg/concurrent"
)

const defaultWriteTimeout = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

var _ sim.FrameSink = (*FrameHub)(nil)

// FrameHub streams simulation frames as JSON text messages to every
// connected websocket client. Clients are read-only viewers.
type FrameHub struct {
	mu           sync.Mutex
	sendMu       sync.Mutex
	clients      map[*websocket.Conn]struct{}
	closed       bool
	writeTimeout time.Duration
	logger       log.Log
}

func NewFrameHub(logger log.Log) *FrameHub {
	if logger == nil {
		logger = log.NewNop()
	}
	return &FrameHub{
		clients:      make(map[*websocket.Conn]struct{}),
		writeTimeout: defaultWriteTimeout,
		logger:       logger,
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	if !h.register(conn) {
		_ = conn.Close()
		return
	}
	h.logger.Info("viewer connected", log.String("remote", conn.RemoteAddr().String()))

	// Viewers never send anything useful; reading only drives control frames
	// and notices the disconnect.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	h.unregister(conn)
	h.logger.Info("viewer disconnected", log.String("remote", conn.RemoteAddr().String()))
}

func (h *FrameHub) register(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[conn] = struct{}{}
	return true
}

func (h *FrameHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

// Publish sends frame to every client. Clients whose write fails are dropped;
// that is not an error for the caller. Writes run outside the registry lock
// so viewers can connect while a frame is in flight, and each viewer gets
// its own writer so a slow one costs at most one write timeout.
func (h *FrameHub) Publish(_ context.Context, frame sim.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", frame.Index, err)
	}
	msg, err := websocket.NewPreparedMessage(websocket.TextMessage, payload)
	if err != nil {
		return fmt.Errorf("prepare frame %d: %w", frame.Index, err)
	}

	// gorilla/websocket allows one writer per connection.
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	conns, err := h.snapshot()
	if err != nil {
		return err
	}

	failed := make([]error, len(conns))
	_ = concurrent.ForEachChunk(len(conns), len(conns), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			_ = conns[i].SetWriteDeadline(time.Now().Add(h.writeTimeout))
			failed[i] = conns[i].WritePreparedMessage(msg)
		}
		return nil
	})

	for i, err := range failed {
		if err != nil {
			h.logger.Warn("dropping viewer", log.String("remote", conns[i].RemoteAddr().String()), log.Error(err))
			h.unregister(conns[i])
		}
	}
	return nil
}

func (h *FrameHub) snapshot() ([]*websocket.Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns, nil
}

// Clients returns the number of connected viewers.
func (h *FrameHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Start serves the hub on addr at /ws until ctx ends. It returns the bound
// address once the listener is up.
func (h *FrameHub) Start(ctx context.Context, addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("frame stream stopped", log.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.Close()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.logger.Info("frame stream listening", log.String("addr", listener.Addr().String()))
	return listener.Addr(), nil
}

// Close disconnects every client and rejects further frames.
func (h *FrameHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
	return nil
}
