package net

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/towergo/client/internal/net/wire"
	"go.uber.org/zap"
)

const (
	// MaxPacketSize is the conventional datagram payload ceiling. Nothing
	// enforces it at the send site; payloads are expected to fit.
	MaxPacketSize = 1200

	// socketBufferSize enlarges the kernel send/receive buffers so inbound
	// bursts are absorbed instead of dropped.
	socketBufferSize = 2 << 20 // 2 MiB

	DefaultKeepaliveInterval = 50 * time.Millisecond // 20 Hz
	DefaultTimeout           = 5 * time.Second
	defaultQueueSize         = 1024
)

// ErrNotConnected is returned by Send when no connection is established.
var ErrNotConnected = errors.New("transport not connected")

// Options tunes a Transport. Zero values fall back to defaults;
// MaxPacketsPerTick of 0 means an unbounded per-tick drain.
type Options struct {
	KeepaliveInterval time.Duration
	Timeout           time.Duration
	QueueSize         int
	MaxPacketsPerTick int
}

// Transport owns the UDP socket for the replication channel. A read-loop
// goroutine feeds inbound datagrams into a buffered queue; everything else
// (Tick, ReceiveAll, Send, Disconnect) runs on the caller's tick goroutine
// and never blocks.
//
// The transport is fire-and-forget: no sequence numbers, no acks, no
// retransmission. Packets may be dropped or reordered by the network.
type Transport struct {
	opts Options
	log  *zap.Logger

	conn      *net.UDPConn
	clientID  uint64
	connected bool
	closeCh   chan struct{}
	inQueue   chan []byte

	keepaliveAcc time.Duration
	sinceLast    time.Duration

	dropped atomic.Uint64 // datagrams discarded because the queue was full
}

func NewTransport(opts Options, log *zap.Logger) *Transport {
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Transport{opts: opts, log: log}
}

// Connect resolves the target, dials a UDP socket with enlarged buffers,
// generates the client identifier from the wall clock in milliseconds, and
// sends the 8-byte handshake. On any failure the socket is closed and the
// transport stays disconnected.
func (t *Transport) Connect(address string, port int) error {
	if t.connected {
		return fmt.Errorf("connect %s:%d: already connected", address, port)
	}

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		return fmt.Errorf("resolve %s:%d: %w", address, port, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	// Best effort; the OS may clamp these.
	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		t.log.Debug("設定接收緩衝區失敗", zap.Error(err))
	}
	if err := conn.SetWriteBuffer(socketBufferSize); err != nil {
		t.log.Debug("設定傳送緩衝區失敗", zap.Error(err))
	}

	t.clientID = uint64(time.Now().UnixMilli())

	// Handshake: the 8-byte client identifier, raw, no type tag.
	hs := wire.NewWriter()
	hs.WriteU64(t.clientID)
	if _, err := conn.Write(hs.Bytes()); err != nil {
		conn.Close()
		return fmt.Errorf("send handshake: %w", err)
	}

	t.conn = conn
	t.connected = true
	t.closeCh = make(chan struct{})
	t.inQueue = make(chan []byte, t.opts.QueueSize)
	t.keepaliveAcc = 0
	t.sinceLast = 0
	t.dropped.Store(0) // counters are per-connection, like the accumulators

	go t.readLoop(conn, t.inQueue, t.closeCh)

	t.log.Info("UDP 連線建立",
		zap.String("server", addr.String()),
		zap.Uint64("client_id", t.clientID),
	)
	return nil
}

// Disconnect closes the socket unconditionally. Idempotent.
func (t *Transport) Disconnect() {
	if !t.connected {
		return
	}
	t.connected = false
	close(t.closeCh)
	t.conn.Close()
	t.conn = nil
	t.log.Info("UDP 連線關閉")
}

// Connected reports whether the handshake has been sent on an open socket.
func (t *Transport) Connected() bool {
	return t.connected
}

// ClientID returns the identifier generated at connect time. Stable for the
// connection's lifetime; zero before the first Connect.
func (t *Transport) ClientID() uint64 {
	return t.clientID
}

// Send fires one best-effort datagram. No fragmentation handling — the
// payload must fit a single datagram.
func (t *Transport) Send(data []byte) error {
	if !t.connected {
		return ErrNotConnected
	}
	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("send %d bytes: %w", len(data), err)
	}
	return nil
}

// Tick advances the transport's clocks by dt: sends a keepalive every
// KeepaliveInterval of accumulated time and grows the no-traffic duration.
// Time is passed in, never sampled, so tests can drive synthetic clocks.
func (t *Transport) Tick(dt time.Duration) {
	if !t.connected {
		return
	}

	t.keepaliveAcc += dt
	if t.keepaliveAcc >= t.opts.KeepaliveInterval {
		t.keepaliveAcc = 0
		if err := t.Send([]byte{wire.TagKeepalive}); err != nil {
			t.log.Debug("心跳封包發送失敗", zap.Error(err))
		}
	}

	t.sinceLast += dt
}

// ReceiveAll drains pending inbound datagrams in kernel receive order,
// up to MaxPacketsPerTick (unbounded when 0); excess stays queued for the
// next tick. Never blocks. Draining a non-empty payload resets the
// no-traffic clock.
func (t *Transport) ReceiveAll() [][]byte {
	if !t.connected {
		return nil
	}

	var out [][]byte
	for t.opts.MaxPacketsPerTick == 0 || len(out) < t.opts.MaxPacketsPerTick {
		select {
		case p := <-t.inQueue:
			out = append(out, p)
			if len(p) > 0 {
				t.sinceLast = 0
			}
		default:
			return out
		}
	}
	return out
}

// SinceLastPacket returns the accumulated tick time since a payload was
// last drained.
func (t *Transport) SinceLastPacket() time.Duration {
	return t.sinceLast
}

// TimedOut reports whether the no-traffic duration has crossed the timeout
// threshold. The transport never disconnects on its own; acting on this is
// the caller's policy.
func (t *Transport) TimedOut() bool {
	return t.connected && t.sinceLast > t.opts.Timeout
}

// Dropped returns the count of datagrams discarded because the inbound
// queue was full.
func (t *Transport) Dropped() uint64 {
	return t.dropped.Load()
}

// readLoop runs in its own goroutine for the lifetime of one connection.
// It reads datagrams from the socket and pushes copies onto the queue. A
// full queue drops the datagram — the channel would have dropped it in the
// kernel buffer anyway, and blocking here would stall socket draining.
func (t *Transport) readLoop(conn *net.UDPConn, queue chan<- []byte, closeCh <-chan struct{}) {
	buf := make([]byte, MaxPacketSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-closeCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// Transient (e.g. ICMP port unreachable on a connected UDP
			// socket); keep reading.
			t.log.Debug("讀取錯誤", zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case queue <- payload:
		case <-closeCh:
			return
		default:
			t.dropped.Add(1)
		}
	}
}
