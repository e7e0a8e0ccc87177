package replication

import (
	"time"

	"github.com/towergo/client/internal/net/wire"
	"go.uber.org/zap"
)

// DefaultStatsInterval is how much accumulated tick time passes between
// traffic stat log lines.
const DefaultStatsInterval = 5 * time.Second

// Transport is the packet source the manager drives each tick. Satisfied
// by *net.Transport; tests substitute canned batches.
type Transport interface {
	Tick(dt time.Duration)
	ReceiveAll() [][]byte
	Connected() bool
}

// Stats are running traffic counters since connect.
type Stats struct {
	PacketsReceived uint64
	BytesReceived   uint64
	Players         int
	Monsters        int
	Tiles           int
}

// Manager ties the transport and the cache together: each tick it pulls
// every pending datagram, dispatches on the one-byte type tag, decodes, and
// reconciles into the cache. A malformed packet is dropped and logged; it
// never halts the rest of the drain batch or the connection.
type Manager struct {
	transport Transport
	cache     *Cache
	log       *zap.Logger

	statsInterval time.Duration
	statsAcc      time.Duration

	packetsReceived uint64
	bytesReceived   uint64
}

func NewManager(transport Transport, cache *Cache, statsInterval time.Duration, log *zap.Logger) *Manager {
	if statsInterval <= 0 {
		statsInterval = DefaultStatsInterval
	}
	return &Manager{
		transport:     transport,
		cache:         cache,
		statsInterval: statsInterval,
		log:           log,
	}
}

// Cache exposes the entity collections (read-only use expected).
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Stats returns a snapshot of the traffic counters.
func (m *Manager) Stats() Stats {
	return Stats{
		PacketsReceived: m.packetsReceived,
		BytesReceived:   m.bytesReceived,
		Players:         m.cache.PlayerCount(),
		Monsters:        m.cache.MonsterCount(),
		Tiles:           m.cache.TileCount(),
	}
}

// Tick runs one frame of replication. Called at a steady cadence from the
// game loop; dt is the elapsed time since the previous call.
func (m *Manager) Tick(dt time.Duration) {
	if !m.transport.Connected() {
		return
	}

	m.transport.Tick(dt)

	for _, payload := range m.transport.ReceiveAll() {
		m.processPacket(payload)
	}

	m.statsAcc += dt
	if m.statsAcc >= m.statsInterval {
		m.statsAcc = 0
		m.log.Info("複製統計",
			zap.Uint64("packets", m.packetsReceived),
			zap.Uint64("bytes", m.bytesReceived),
			zap.Int("players", m.cache.PlayerCount()),
			zap.Int("monsters", m.cache.MonsterCount()),
			zap.Int("tiles", m.cache.TileCount()),
		)
	}
}

// Disconnect clears the whole cache, destroying every presentation handle.
// The transport itself is closed by its owner.
func (m *Manager) Disconnect() {
	m.cache.Clear()
}

func (m *Manager) processPacket(payload []byte) {
	if len(payload) == 0 {
		return
	}

	m.packetsReceived++
	m.bytesReceived += uint64(len(payload))

	r := wire.NewReader(payload)
	tag := r.ReadU8()

	switch tag {
	case wire.TagKeepalive:
		// Liveness only; no payload.

	case wire.TagPlayerUpdate, wire.TagPlayerSpawn:
		rec := wire.DecodePlayer(r)
		if r.HasError() {
			m.log.Warn("玩家封包解碼失敗", zap.Int("size", len(payload)))
			return
		}
		m.cache.ApplyPlayer(rec)

	case wire.TagMonsterUpdate:
		rec := wire.DecodeMonster(r)
		if r.HasError() {
			m.log.Warn("怪物封包解碼失敗", zap.Int("size", len(payload)))
			return
		}
		m.cache.ApplyMonster(rec)

	case wire.TagFloorTileUpdate:
		rec := wire.DecodeTile(r)
		if r.HasError() {
			m.log.Warn("地板封包解碼失敗", zap.Int("size", len(payload)))
			return
		}
		m.cache.ApplyTile(rec)

	case wire.TagPlayerDespawn:
		id := r.ReadU64()
		if r.HasError() {
			m.log.Warn("消失封包解碼失敗", zap.Int("size", len(payload)))
			return
		}
		m.cache.RemovePlayer(id)

	default:
		// Forward compatibility: tolerate tags this client predates.
		m.log.Debug("未知封包類型", zap.Uint8("tag", tag), zap.Int("size", len(payload)))
	}
}
