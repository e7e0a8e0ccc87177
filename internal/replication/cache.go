package replication

import (
	"github.com/towergo/client/internal/net/wire"
	"go.uber.org/zap"
)

// DefaultTileSize is the edge length of one floor tile in local units.
const DefaultTileSize float32 = 100

// MonsterKey derives a synthetic map key from a coarse quantization of the
// transformed position, because the wire format carries no monster
// identity. Two monsters at near-identical positions collide and overwrite
// each other's handle; this mirrors the producing service's expectations
// and must not be "fixed" client-side.
func MonsterKey(pos wire.Vec3) int64 {
	return int64(pos.X*1000 + pos.Y*100 + pos.Z*10)
}

// Cache holds the local mirror of remote entities: players keyed by id,
// monsters keyed by MonsterKey, tiles as an append-only list. Mutated only
// from the tick goroutine; no locking.
type Cache struct {
	players  map[uint64]Handle
	monsters map[int64]Handle
	tiles    []Handle

	sink     Sink
	tileSize float32
	log      *zap.Logger
}

func NewCache(sink Sink, tileSize float32, log *zap.Logger) *Cache {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &Cache{
		players:  make(map[uint64]Handle),
		monsters: make(map[int64]Handle),
		sink:     sink,
		tileSize: tileSize,
		log:      log,
	}
}

// ApplyPlayer reconciles one player record: update in place when the id is
// known, otherwise spawn. Returns true on spawn.
func (c *Cache) ApplyPlayer(rec wire.PlayerRecord) bool {
	if h, ok := c.players[rec.ID]; ok {
		c.sink.PlayerUpdated(h, rec)
		return false
	}
	c.players[rec.ID] = c.sink.PlayerSpawned(rec)
	c.log.Debug("玩家生成", zap.Uint64("id", rec.ID))
	return true
}

// ApplyMonster reconciles one monster record under its synthetic key.
// Returns true on spawn.
func (c *Cache) ApplyMonster(rec wire.MonsterRecord) bool {
	key := MonsterKey(rec.Position)
	if h, ok := c.monsters[key]; ok {
		c.sink.MonsterUpdated(h, rec)
		return false
	}
	c.monsters[key] = c.sink.MonsterSpawned(key, rec)
	c.log.Debug("怪物生成", zap.String("type", rec.MonsterType), zap.Int64("key", key))
	return true
}

// ApplyTile appends one tile unconditionally. Tiles are write-once static
// geometry: no reconciliation, no update, no per-tile removal.
func (c *Cache) ApplyTile(rec wire.TileRecord) {
	world := wire.Vec3{
		X: float32(rec.GridX) * c.tileSize,
		Y: float32(rec.GridY) * c.tileSize,
	}
	c.tiles = append(c.tiles, c.sink.TilePlaced(rec, world))
}

// RemovePlayer destroys and removes exactly the given id. A despawn for an
// unknown id is a no-op, not an error.
func (c *Cache) RemovePlayer(id uint64) bool {
	h, ok := c.players[id]
	if !ok {
		return false
	}
	c.sink.PlayerDespawned(h)
	delete(c.players, id)
	c.log.Debug("玩家消失", zap.Uint64("id", id))
	return true
}

// Clear destroys every handle in all three collections and empties them.
// This is the only removal path for monsters and tiles.
func (c *Cache) Clear() {
	for id, h := range c.players {
		c.sink.PlayerDespawned(h)
		delete(c.players, id)
	}
	for key, h := range c.monsters {
		c.sink.MonsterRemoved(h)
		delete(c.monsters, key)
	}
	for _, h := range c.tiles {
		c.sink.TileRemoved(h)
	}
	c.tiles = nil
}

func (c *Cache) PlayerCount() int  { return len(c.players) }
func (c *Cache) MonsterCount() int { return len(c.monsters) }
func (c *Cache) TileCount() int    { return len(c.tiles) }
