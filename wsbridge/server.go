package wsbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"overwatch/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Observers are local tooling; origin checks are left to a fronting proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server broadcasts session snapshots to connected websocket observers. It
// polls the session store and pushes a snapshot whenever UpdatedAt moves.
type Server struct {
	store        *session.Store
	addr         string
	pollInterval time.Duration
	version      string
	logger       hclog.Logger

	mu      sync.Mutex
	clients map[*client]bool

	httpServer *http.Server
}

// Options configures the observer server.
type Options struct {
	Store        *session.Store
	Addr         string
	PollInterval time.Duration
	Version      string
	Logger       hclog.Logger
}

// NewServer builds an observer server. Store and Addr are required.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Server{
		store:        opts.Store,
		addr:         opts.Addr,
		pollInterval: pollInterval,
		version:      opts.Version,
		logger:       logger.Named("wsbridge"),
		clients:      make(map[*client]bool),
	}
}

// Start serves the websocket endpoint and runs the snapshot poller until the
// context is cancelled. It blocks.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("observer bridge listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go s.pollLoop(ctx)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		s.closeAll()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64), server: s}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	s.logger.Debug("observer connected", "remote", conn.RemoteAddr())

	// Greet with the session id, then the current snapshot so a late joiner
	// does not wait for the next change.
	snap := s.store.Get()
	if msg, err := encodeEnvelope(TypeHello, HelloPayload{SessionID: snap.SessionID, Version: s.version}); err == nil {
		c.send <- msg
	}
	if msg, err := encodeEnvelope(TypeSnapshot, snap); err == nil {
		c.send <- msg
	}

	go c.writePump()
	go c.readPump()
}

// pollLoop watches the session store and broadcasts on change.
func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// New observers get the current snapshot on connect; the loop only
	// broadcasts changes from here on.
	lastSeen := s.store.Get().UpdatedAt
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.store.Get()
			if !snap.UpdatedAt.After(lastSeen) {
				continue
			}
			lastSeen = snap.UpdatedAt

			msg, err := encodeEnvelope(TypeSnapshot, snap)
			if err != nil {
				s.logger.Error("encode snapshot", "error", err)
				continue
			}
			s.broadcast(msg)
		}
	}
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// Slow observer; drop it rather than stall the run.
			delete(s.clients, c)
			close(c.send)
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected observers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// client is one connected observer.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// readPump discards inbound frames; the feed is one-way. It exists to process
// pongs and detect disconnects.
func (c *client) readPump() {
	defer func() {
		c.server.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
