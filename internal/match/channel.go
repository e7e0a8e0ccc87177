package match

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/towergo/client/internal/net/wire"
	"go.uber.org/zap"
)

const inboundQueueSize = 256

// Handler receives one dispatched match message. Handlers run on the tick
// goroutine, in socket receive order.
type Handler func(op OpCode, dataJSON string)

// Options configures a Channel. Zero durations fall back to defaults;
// MaxRetries of 0 disables reconnection.
type Options struct {
	Host             string
	Port             int
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	MaxRetries       int
}

type inboundMsg struct {
	op   OpCode
	data string
}

// Channel is the WebSocket match-data connection: JSON envelopes carrying
// op-coded, base64-wrapped payloads. It is a message-passing boundary only;
// nothing here interprets gameplay.
//
// A read-pump goroutine feeds an inbound queue; Tick drains it and invokes
// handlers, so dispatch and the latest-payload store stay on the tick
// goroutine. Send methods may be called from the tick goroutine only.
//
// Each Connect/Disconnect bumps a generation counter under mu. Pump and
// reconnect goroutines carry the generation they were started for and bow
// out once it is stale, so a Connect racing a sleeping reconnect never ends
// up with two pumps or a leaked socket.
type Channel struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex // guards conn, gen, matchID, token
	conn    *websocket.Conn
	gen     uint64
	matchID string
	token   string

	connected atomic.Bool
	closing   atomic.Bool

	inbound  chan inboundMsg
	handlers map[OpCode][]Handler
	latest   map[OpCode]string
}

func NewChannel(opts Options, log *zap.Logger) *Channel {
	if opts.ReconnectInitial <= 0 {
		opts.ReconnectInitial = time.Second
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30 * time.Second
	}
	return &Channel{
		opts:     opts,
		log:      log,
		inbound:  make(chan inboundMsg, inboundQueueSize),
		handlers: make(map[OpCode][]Handler),
		latest:   make(map[OpCode]string),
	}
}

func (c *Channel) url(token string) string {
	return fmt.Sprintf("ws://%s:%d/ws?token=%s", c.opts.Host, c.opts.Port, token)
}

// Connect dials the match socket, sends the join message, and starts the
// read pump. Any previous session — live pump or reconnect loop sleeping
// between attempts — is superseded and cleaned up first.
func (c *Channel) Connect(matchID, authToken string) error {
	c.closing.Store(true)
	c.connected.Store(false)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.matchID = matchID
	c.token = authToken
	c.mu.Unlock()

	c.closing.Store(false)

	conn, err := c.dialAndJoin(matchID, authToken)
	if err != nil {
		return err
	}
	if !c.install(gen, conn) {
		conn.Close()
		return fmt.Errorf("connect match %s: superseded", matchID)
	}

	go c.readPump(conn, gen, matchID, authToken)

	c.log.Info("對戰頻道連線", zap.String("match_id", matchID))
	return nil
}

func (c *Channel) dialAndJoin(matchID, token string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.url(token), nil)
	if err != nil {
		return nil, fmt.Errorf("dial match %s: %w", matchID, err)
	}

	join, err := encodeMatchJoin(matchID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send match join: %w", err)
	}
	return conn, nil
}

// install stores the socket if gen is still the live generation.
func (c *Channel) install(gen uint64, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.conn = conn
	c.connected.Store(true)
	return true
}

func (c *Channel) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// Disconnect closes the socket and stops reconnection attempts. Idempotent.
func (c *Channel) Disconnect() {
	c.closing.Store(true)
	c.connected.Store(false)

	c.mu.Lock()
	c.gen++ // strands any reconnect loop that missed the closing flag
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) Connected() bool {
	return c.connected.Load()
}

func (c *Channel) MatchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

// Subscribe registers a handler for one op code. Call before Tick starts
// running; registration is tick-goroutine-only.
func (c *Channel) Subscribe(op OpCode, fn Handler) {
	c.handlers[op] = append(c.handlers[op], fn)
}

// Latest returns the most recent payload seen for an op code. At most one
// payload per category is retained.
func (c *Channel) Latest(op OpCode) (string, bool) {
	data, ok := c.latest[op]
	return data, ok
}

// Tick drains the inbound queue, updates the per-op latest store, and
// dispatches handlers in receive order.
func (c *Channel) Tick() {
	for {
		select {
		case msg := <-c.inbound:
			c.latest[msg.op] = msg.data
			for _, fn := range c.handlers[msg.op] {
				fn(msg.op, msg.data)
			}
		default:
			return
		}
	}
}

// SendMatchData wraps a JSON payload in a match_data_send envelope and
// writes it to the socket.
func (c *Channel) SendMatchData(op OpCode, dataJSON string) error {
	if !c.connected.Load() {
		return fmt.Errorf("send %s: match channel not connected", op)
	}

	c.mu.Lock()
	conn := c.conn
	matchID := c.matchID
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("send %s: match channel not connected", op)
	}

	frame, err := encodeMatchData(matchID, op, dataJSON)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", op, err)
	}
	return nil
}

// SendPosition broadcasts the local player position. Positions travel in
// the server frame.
func (c *Channel) SendPosition(pos wire.Vec3, yaw float32) error {
	server := wire.LocalToServer(pos)
	payload := struct {
		Position struct {
			X float32 `json:"x"`
			Y float32 `json:"y"`
			Z float32 `json:"z"`
		} `json:"position"`
		Rotation struct {
			Yaw float32 `json:"yaw"`
		} `json:"rotation"`
	}{}
	payload.Position.X = server.X
	payload.Position.Y = server.Y
	payload.Position.Z = server.Z
	payload.Rotation.Yaw = yaw
	return c.sendJSON(OpPlayerPosition, payload)
}

// SendAttack broadcasts an attack event.
func (c *Channel) SendAttack(targetID int32, damage float32, angleID, comboStep int32) error {
	payload := struct {
		TargetID  int32   `json:"target_id"`
		Damage    float32 `json:"damage"`
		AngleID   int32   `json:"angle_id"`
		ComboStep int32   `json:"combo_step"`
	}{targetID, damage, angleID, comboStep}
	return c.sendJSON(OpPlayerAttack, payload)
}

// SendDeath broadcasts a death event with the echo type left behind.
func (c *Channel) SendDeath(echoType string, pos wire.Vec3) error {
	server := wire.LocalToServer(pos)
	payload := struct {
		EchoType string `json:"echo_type"`
		Position struct {
			X float32 `json:"x"`
			Y float32 `json:"y"`
			Z float32 `json:"z"`
		} `json:"position"`
	}{EchoType: echoType}
	payload.Position.X = server.X
	payload.Position.Y = server.Y
	payload.Position.Z = server.Z
	return c.sendJSON(OpPlayerDeath, payload)
}

// SendChat broadcasts a chat line, truncated to 200 runes.
func (c *Channel) SendChat(message string) error {
	runes := []rune(message)
	if len(runes) > 200 {
		message = string(runes[:200])
	}
	payload := struct {
		Message string `json:"message"`
	}{message}
	return c.sendJSON(OpChatMessage, payload)
}

// SendInteract broadcasts an interaction with a world object.
func (c *Channel) SendInteract(interactType, targetID string) error {
	payload := struct {
		Type     string `json:"type"`
		TargetID string `json:"target_id"`
	}{interactType, targetID}
	return c.sendJSON(OpPlayerInteract, payload)
}

func (c *Channel) sendJSON(op OpCode, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", op, err)
	}
	return c.SendMatchData(op, string(raw))
}

// readPump reads frames until the socket dies, pushing match_data messages
// onto the inbound queue. On failure it hands off to the reconnect loop,
// unless the channel is closing or a newer Connect superseded this session.
func (c *Channel) readPump(conn *websocket.Conn, gen uint64, matchID, token string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				return
			}
			c.mu.Lock()
			if gen != c.gen {
				c.mu.Unlock()
				return
			}
			c.conn = nil
			c.mu.Unlock()
			c.connected.Store(false)

			c.log.Warn("對戰頻道斷線", zap.Error(err))
			c.reconnectLoop(gen, matchID, token)
			return
		}

		env, err := decodeEnvelope(raw)
		if err != nil {
			c.log.Debug("對戰訊息解析失敗", zap.Error(err))
			continue
		}

		if env.MatchData != nil {
			payload, err := env.MatchData.Payload()
			if err != nil {
				c.log.Debug("對戰資料解碼失敗", zap.Error(err))
				continue
			}
			select {
			case c.inbound <- inboundMsg{op: env.MatchData.OpCode, data: payload}:
			default:
				c.log.Warn("對戰佇列已滿，丟棄訊息", zap.Stringer("op", env.MatchData.OpCode))
			}
		}

		if env.Error != nil {
			c.log.Error("對戰錯誤", zap.String("message", env.Error.Message))
		}
	}
}

// reconnectLoop retries the dial with exponential backoff, rejoining the
// match on success. Gives up after MaxRetries (0 = reconnection disabled)
// or as soon as its generation goes stale.
func (c *Channel) reconnectLoop(gen uint64, matchID, token string) {
	backoff := c.opts.ReconnectInitial
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if c.closing.Load() || !c.current(gen) {
			return
		}
		time.Sleep(backoff)
		if backoff *= 2; backoff > c.opts.ReconnectMax {
			backoff = c.opts.ReconnectMax
		}

		conn, err := c.dialAndJoin(matchID, token)
		if err != nil {
			c.log.Warn("對戰頻道重連失敗",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		if !c.install(gen, conn) {
			// A newer Connect won the race while we were dialing.
			conn.Close()
			return
		}
		c.log.Info("對戰頻道重連成功", zap.Int("attempt", attempt))
		go c.readPump(conn, gen, matchID, token)
		return
	}
	c.log.Error("對戰頻道重連放棄", zap.Int("max_retries", c.opts.MaxRetries))
}
