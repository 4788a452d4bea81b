package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Push channels.
const (
	ChannelCheckinState = "checkin.state_changed"
	ChannelSessionState = "session.state_changed"
)

// Frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameAck         = "ack"
	FrameError       = "error"
)

// peerQueueSize is how many frames may wait for a slow shell before
// further pushes to it are dropped.
const peerQueueSize = 64

// Frame is one WebSocket message in either direction. Channels is set on
// subscribe, unsubscribe and ack; Channel and Data on event.
type Frame struct {
	Type     string   `json:"type"`
	ID       string   `json:"id,omitempty"`
	Channel  string   `json:"channel,omitempty"`
	Channels []string `json:"channels,omitempty"`
	At       string   `json:"at,omitempty"`
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SnapshotFunc returns a channel's current value. It is pushed to a peer
// right after it subscribes, so a reconnecting shell never waits for the
// next transition to learn the state.
type SnapshotFunc func() any

// Hub fans pushed state out to connected shells.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu        sync.RWMutex
	peers     map[*peer]struct{}
	snapshots map[string]SnapshotFunc
}

// NewHub creates a Hub with no channels.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:       cfg,
		logger:    logger,
		peers:     make(map[*peer]struct{}),
		snapshots: make(map[string]SnapshotFunc),
	}
}

// Channel declares a channel peers may subscribe to. snapshot may be nil.
func (h *Hub) Channel(name string, snapshot SnapshotFunc) {
	h.mu.Lock()
	h.snapshots[name] = snapshot
	h.mu.Unlock()
}

func (h *Hub) known(name string) (SnapshotFunc, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.snapshots[name]
	return fn, ok
}

// Run blocks until ctx is cancelled, then disconnects every peer.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for p := range peers {
		close(p.out)
		if p.conn != nil {
			p.conn.Close()
		}
	}
}

// Clients returns the number of connected peers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Debug("shell connected", "user_id", p.userID, "clients", n)
}

// remove drops p. Whoever removes it from the map closes its queue, so
// Run and the read loop never close it twice.
func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()

	if ok {
		close(p.out)
	}
	h.logger.Debug("shell disconnected", "clients", n)
}

// Publish pushes data to every peer subscribed to channel.
func (h *Hub) Publish(channel string, data any) {
	raw, err := encodeFrame(Frame{Type: FrameEvent, Channel: channel, Data: data})
	if err != nil {
		h.logger.Error("encoding push frame", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	sent := 0
	for _, p := range targets {
		if p.wants(channel) {
			p.enqueue(raw)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("pushed", "channel", channel, "recipients", sent)
	}
}

func encodeFrame(f Frame) ([]byte, error) {
	if f.At == "" {
		f.At = time.Now().UTC().Format(time.RFC3339)
	}
	return json.Marshal(f)
}

// peer is one connected shell.
type peer struct {
	hub    *Hub
	conn   *websocket.Conn
	out    chan []byte
	userID string

	mu       sync.RWMutex
	channels map[string]struct{}
}

func newPeer(h *Hub, conn *websocket.Conn) *peer {
	return &peer{
		hub:      h,
		conn:     conn,
		out:      make(chan []byte, peerQueueSize),
		channels: make(map[string]struct{}),
	}
}

// handleWebSocket upgrades the request and attaches the shell to the hub.
// The gateway is loopback-only, so the browser Origin is the only check.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	p := newPeer(s.hub, conn)
	if sess := s.auth.Current(); sess != nil {
		p.userID = sess.UserID
	}
	s.hub.add(p)

	go p.writeLoop(s.wsCfg)
	go p.readLoop(s.wsCfg)
}

func (p *peer) readLoop(cfg config.WebSocketConfig) {
	defer func() {
		p.hub.remove(p)
		p.conn.Close()
	}()

	deadline := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	extend := func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(deadline))
	}

	p.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	//nolint:errcheck // a failed deadline surfaces as a read error
	extend("")
	p.conn.SetPongHandler(extend)

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		// Shells that never answer protocol pings stay alive by talking.
		//nolint:errcheck // a failed deadline surfaces as a read error
		extend("")
		p.handle(data)
	}
}

func (p *peer) writeLoop(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	for {
		var (
			kind = websocket.TextMessage
			data []byte
		)
		select {
		case msg, ok := <-p.out:
			if !ok {
				//nolint:errcheck // closing anyway
				p.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			data = msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		//nolint:errcheck // a failed deadline surfaces as a write error
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(kind, data); err != nil {
			return
		}
	}
}

// handle dispatches one frame from the shell.
func (p *peer) handle(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		p.reply(Frame{Type: FrameError, Error: "invalid JSON frame"})
		return
	}

	switch f.Type {
	case FrameSubscribe:
		p.subscribe(f)
	case FrameUnsubscribe:
		p.mu.Lock()
		for _, ch := range f.Channels {
			delete(p.channels, ch)
		}
		p.mu.Unlock()
		p.reply(Frame{Type: FrameAck, ID: f.ID, Channels: f.Channels})
	case FramePing:
		p.reply(Frame{Type: FramePong, ID: f.ID})
	default:
		p.reply(Frame{Type: FrameError, ID: f.ID, Error: "unknown frame type: " + f.Type})
	}
}

// subscribe accepts the frame only if every channel is known, then acks
// and pushes each channel's current value.
func (p *peer) subscribe(f Frame) {
	var unknown []string
	snaps := make(map[string]SnapshotFunc, len(f.Channels))
	for _, ch := range f.Channels {
		fn, ok := p.hub.known(ch)
		if !ok {
			unknown = append(unknown, ch)
			continue
		}
		snaps[ch] = fn
	}
	if len(unknown) > 0 {
		p.reply(Frame{Type: FrameError, ID: f.ID, Error: "unknown channel: " + strings.Join(unknown, ", ")})
		return
	}

	p.mu.Lock()
	for ch := range snaps {
		p.channels[ch] = struct{}{}
	}
	p.mu.Unlock()
	p.reply(Frame{Type: FrameAck, ID: f.ID, Channels: f.Channels})

	for _, ch := range f.Channels {
		if fn := snaps[ch]; fn != nil {
			p.reply(Frame{Type: FrameEvent, Channel: ch, Data: fn()})
		}
	}
}

func (p *peer) wants(channel string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.channels[channel]
	return ok
}

func (p *peer) reply(f Frame) {
	raw, err := encodeFrame(f)
	if err != nil {
		return
	}
	p.enqueue(raw)
}

// enqueue drops the frame when the queue is full or already closed.
func (p *peer) enqueue(raw []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a queue closed by a concurrent remove
	}()

	select {
	case p.out <- raw:
	default:
	}
}
