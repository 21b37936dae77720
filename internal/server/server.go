package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/auth"
	"github.com/coindelisi66/token-hunger-arena/internal/game"
)

const (
	callTimeout    = 5 * time.Second
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 1 << 16
)

// Host is the game surface the transport drives. *game.Game implements it.
type Host interface {
	Join(ctx context.Context, address, tokenName string) (bool, error)
	Start(ctx context.Context) (bool, error)
	Swap(ctx context.Context, address string, from, to int, amount int64) error
	Reset(ctx context.Context) error
	Snapshot(ctx context.Context) (arena.Snapshot, bool, error)
}

// History lists finished games.
type History interface {
	Recent(ctx context.Context, limit int) ([]game.Outcome, error)
}

type Options struct {
	SwapsPerSecond float64
	SwapBurst      int
	History        History
	Logger         *slog.Logger
}

// Client is one WebSocket session. addr is the participant address the
// session last identified as.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	addr    string // read loop only
}

type GameServer struct {
	host     Host
	hub      *Hub
	opts     Options
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewGameServer(host Host, hub *Hub, opts Options) *GameServer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SwapsPerSecond <= 0 {
		opts.SwapsPerSecond = 20
	}
	if opts.SwapBurst <= 0 {
		opts.SwapBurst = 10
	}
	return &GameServer{
		host: host,
		hub:  hub,
		opts: opts,
		log:  opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HTTP handlers
func (gs *GameServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := gs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gs.log.Warn("upgrade", "err", err)
		return
	}
	c := &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(rate.Limit(gs.opts.SwapsPerSecond), gs.opts.SwapBurst),
	}
	gs.hub.register(c)
	gs.log.Debug("client connected", "session", c.id, "remote", r.RemoteAddr)
	go gs.writeLoop(c)
	go gs.readLoop(c)
}

func (gs *GameServer) HandleState(w http.ResponseWriter, r *http.Request) {
	snap, _, err := gs.host.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (gs *GameServer) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if gs.opts.History == nil {
		writeJSON(w, http.StatusOK, []outcomeView{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	outcomes, err := gs.opts.History.Recent(r.Context(), limit)
	if err != nil {
		gs.log.Warn("history", "err", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	resp := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		resp = append(resp, newOutcomeView(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (gs *GameServer) HandleStart(w http.ResponseWriter, r *http.Request) {
	started, err := gs.host.Start(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	gs.log.Info("operator start", "operator", operator(r), "started", started)
	writeJSON(w, http.StatusOK, map[string]bool{"started": started})
}

func (gs *GameServer) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := gs.host.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	gs.log.Info("operator reset", "operator", operator(r))
	w.WriteHeader(http.StatusNoContent)
}

func operator(r *http.Request) string {
	if claims, ok := auth.OperatorFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}

// WebSocket read loop
func (gs *GameServer) readLoop(c *Client) {
	defer func() {
		gs.hub.unregister(c)
		c.conn.Close()
		gs.log.Debug("client disconnected", "session", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				gs.log.Warn("read", "session", c.id, "err", err)
			}
			return
		}
		gs.handleMessage(c, msg)
	}
}

func (gs *GameServer) handleMessage(c *Client, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	switch msg.Type {
	case MsgHello:
		var data helloPayload
		json.Unmarshal(msg.Payload, &data)
		if data.Addr != "" {
			c.addr = data.Addr
		}
		if snap, ok, err := gs.host.Snapshot(ctx); err == nil && ok {
			gs.hub.send(c, WSOut{Type: MsgState, Payload: snap})
		}
	case MsgJoin:
		var data joinPayload
		if err := json.Unmarshal(msg.Payload, &data); err != nil || data.Addr == "" {
			gs.hub.send(c, WSOut{Type: MsgError, Payload: ErrorOut{Msg: "join needs an addr"}})
			return
		}
		c.addr = data.Addr
		if _, err := gs.host.Join(ctx, data.Addr, data.TokenName); err != nil {
			gs.log.Warn("join", "session", c.id, "err", err)
		}
	case MsgStart:
		if _, err := gs.host.Start(ctx); err != nil {
			gs.log.Warn("start", "session", c.id, "err", err)
		}
	case MsgSwap:
		gs.hub.send(c, WSOut{Type: MsgSwapResult, Payload: gs.handleSwap(ctx, c, msg.Payload)})
	case MsgReset:
		if err := gs.host.Reset(ctx); err != nil {
			gs.log.Warn("reset", "session", c.id, "err", err)
		}
	default:
		gs.hub.send(c, WSOut{Type: MsgError, Payload: ErrorOut{Msg: "unknown message type " + strconv.Quote(msg.Type)}})
	}
}

func (gs *GameServer) handleSwap(ctx context.Context, c *Client, raw json.RawMessage) SwapResult {
	var data swapPayload
	if err := json.Unmarshal(raw, &data); err != nil {
		return SwapResult{Error: KindBadRequest, Msg: "malformed swap payload"}
	}
	if data.FromID == nil || data.ToID == nil || data.Amount == nil {
		return SwapResult{Error: KindBadRequest, Msg: "fromId, toId and amount are required"}
	}
	addr := data.Addr
	if addr == "" {
		addr = c.addr
	}
	if addr == "" {
		return SwapResult{Error: KindBadRequest, Msg: "no address, send hello or join first"}
	}
	if !c.limiter.Allow() {
		return SwapResult{Error: KindRateLimited, Msg: "too many swaps"}
	}

	err := gs.host.Swap(ctx, addr, *data.FromID, *data.ToID, *data.Amount)
	switch {
	case err == nil:
		return SwapResult{OK: true}
	case arena.Kind(err) != "":
		return SwapResult{Error: arena.Kind(err), Msg: err.Error()}
	case errors.Is(err, game.ErrClosed), errors.Is(err, context.DeadlineExceeded):
		return SwapResult{Error: KindUnavailable, Msg: err.Error()}
	default:
		gs.log.Warn("swap", "session", c.id, "err", err)
		return SwapResult{Error: KindUnavailable, Msg: err.Error()}
	}
}

// writeLoop owns every write to the connection.
func (gs *GameServer) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				gs.log.Debug("write", "session", c.id, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type outcomeView struct {
	ID         string            `json:"id"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	FinishedAt time.Time         `json:"finishedAt"`
	Survivors  []arena.TokenView `json:"survivors"`
	Tokens     []arena.TokenView `json:"tokens"`
}

func newOutcomeView(o game.Outcome) outcomeView {
	v := outcomeView{
		ID:         o.ID,
		FinishedAt: o.FinishedAt,
		Survivors:  o.Snapshot.Survivors(),
		Tokens:     o.Snapshot.Tokens,
	}
	if !o.StartedAt.IsZero() {
		t := o.StartedAt
		v.StartedAt = &t
	}
	if v.Survivors == nil {
		v.Survivors = []arena.TokenView{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
