package replication

import "github.com/towergo/client/internal/net/wire"

// Handle is an opaque reference to whatever visual representation the
// presentation layer creates for an entity. The replication layer stores
// and returns handles but never looks inside them.
type Handle = any

// Sink is the presentation boundary. The cache calls it on entity
// lifecycle transitions, always from the tick goroutine, in the order the
// packets were drained. All visual state lives behind the sink.
type Sink interface {
	// PlayerSpawned is called on first sighting of a player id and returns
	// the handle the cache will associate with it.
	PlayerSpawned(rec wire.PlayerRecord) Handle
	// PlayerUpdated is called on every later sighting of the same id. The
	// record supersedes all previous fields.
	PlayerUpdated(h Handle, rec wire.PlayerRecord)
	// PlayerDespawned is called when a despawn packet removes the id, or
	// for every player on cache clear.
	PlayerDespawned(h Handle)

	MonsterSpawned(key int64, rec wire.MonsterRecord) Handle
	MonsterUpdated(h Handle, rec wire.MonsterRecord)
	// MonsterRemoved is only ever called on cache clear; the protocol has
	// no monster despawn packet.
	MonsterRemoved(h Handle)

	// TilePlaced is called once per tile packet. worldPos is the grid
	// position scaled by the configured tile size; tiles are never updated.
	TilePlaced(rec wire.TileRecord, worldPos wire.Vec3) Handle
	// TileRemoved is only ever called on cache clear.
	TileRemoved(h Handle)
}
