package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dexscreener_stream/metrics"
	"dexscreener_stream/stream"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Options struct {
	Period       time.Duration
	WriteTimeout time.Duration
	Heartbeat    time.Duration
	Logger       *zap.SugaredLogger
}

// Hub accepts streaming subscribers and runs one session per connection.
type Hub struct {
	upgrader websocket.Upgrader
	source   stream.Source
	opts     Options
	log      *zap.SugaredLogger

	mu       sync.Mutex
	closed   bool
	sessions map[*Client]context.CancelFunc
	wg       sync.WaitGroup
}

func NewHub(source stream.Source, opts Options) *Hub {
	if opts.Period <= 0 {
		opts.Period = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		source:   source,
		opts:     opts,
		log:      opts.Logger,
		sessions: make(map[*Client]context.CancelFunc),
	}
}

// ServeWS upgrades the request and blocks until the session ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, h.opts.WriteTimeout)
	ctx, cancel := context.WithCancel(context.Background())
	h.register(client, cancel)
	defer h.unregister(client)
	defer cancel()

	metrics.SessionOpened()
	defer metrics.SessionClosed()

	go client.readPump(2*h.opts.Heartbeat, cancel)
	go client.heartbeat(ctx, h.opts.Heartbeat, cancel)

	session, err := stream.NewSession(ctx, h.source, client, stream.Options{
		Period: h.opts.Period,
		Logger: h.log.With("remote_addr", r.RemoteAddr),
	})
	if err != nil {
		h.log.Errorw("Closing subscriber, snapshot unavailable", "remote_addr", r.RemoteAddr, "error", err)
		client.closeWith(websocket.CloseInternalServerErr, "snapshot unavailable")
		return
	}

	if err := session.Run(ctx); err != nil {
		st := session.Stats()
		h.log.Warnw("Session ended by transport error",
			"session_id", st.SessionID,
			"rounds", st.Rounds,
			"pushed", st.Pushed,
			"error", err)
		client.conn.Close()
		return
	}
	client.closeWith(websocket.CloseGoingAway, "stream closed")
}

// Active returns the number of connected subscribers.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown stops accepting subscribers, cancels every live session and
// waits for them to exit or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for _, cancel := range h.sessions {
		cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) register(c *Client, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		cancel()
	}
	h.sessions[c] = cancel
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, c)
}
