package replication

import (
	"fmt"
	"testing"

	"github.com/towergo/client/internal/net/wire"
	"go.uber.org/zap"
)

// recordingSink logs every lifecycle call in order and hands out counting
// handles, standing in for the presentation layer.
type recordingSink struct {
	events     []string
	nextHandle int
}

func (s *recordingSink) event(format string, args ...any) {
	s.events = append(s.events, fmt.Sprintf(format, args...))
}

func (s *recordingSink) handle() Handle {
	s.nextHandle++
	return s.nextHandle
}

func (s *recordingSink) PlayerSpawned(rec wire.PlayerRecord) Handle {
	s.event("player spawned %d", rec.ID)
	return s.handle()
}

func (s *recordingSink) PlayerUpdated(h Handle, rec wire.PlayerRecord) {
	s.event("player updated %d", rec.ID)
}

func (s *recordingSink) PlayerDespawned(h Handle) {
	s.event("player despawned h%d", h.(int))
}

func (s *recordingSink) MonsterSpawned(key int64, rec wire.MonsterRecord) Handle {
	s.event("monster spawned %s", rec.MonsterType)
	return s.handle()
}

func (s *recordingSink) MonsterUpdated(h Handle, rec wire.MonsterRecord) {
	s.event("monster updated %s", rec.MonsterType)
}

func (s *recordingSink) MonsterRemoved(h Handle) {
	s.event("monster removed h%d", h.(int))
}

func (s *recordingSink) TilePlaced(rec wire.TileRecord, worldPos wire.Vec3) Handle {
	s.event("tile placed %d,%d at %v,%v", rec.GridX, rec.GridY, worldPos.X, worldPos.Y)
	return s.handle()
}

func (s *recordingSink) TileRemoved(h Handle) {
	s.event("tile removed h%d", h.(int))
}

func newTestCache() (*Cache, *recordingSink) {
	sink := &recordingSink{}
	return NewCache(sink, 100, zap.NewNop()), sink
}

func playerRec(id uint64) wire.PlayerRecord {
	return wire.PlayerRecord{ID: id, Position: wire.Vec3{X: 1}, Health: 100, CurrentFloor: 1}
}

func TestPlayerReconciliationIdempotence(t *testing.T) {
	cache, sink := newTestCache()

	rec := playerRec(7)
	if spawned := cache.ApplyPlayer(rec); !spawned {
		t.Fatalf("first sighting should spawn")
	}
	if spawned := cache.ApplyPlayer(rec); spawned {
		t.Fatalf("second sighting of identical record must not spawn again")
	}

	if cache.PlayerCount() != 1 {
		t.Fatalf("expected exactly one entity, got %d", cache.PlayerCount())
	}
	want := []string{"player spawned 7", "player updated 7"}
	if len(sink.events) != len(want) {
		t.Fatalf("events: %v", sink.events)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q", i, sink.events[i], want[i])
		}
	}
}

func TestPlayerUpdateSupersedesInPlace(t *testing.T) {
	cache, sink := newTestCache()

	cache.ApplyPlayer(playerRec(7))
	updated := playerRec(7)
	updated.Health = 40
	cache.ApplyPlayer(updated)

	if cache.PlayerCount() != 1 {
		t.Fatalf("update must not create a second entity")
	}
	if sink.events[1] != "player updated 7" {
		t.Fatalf("expected in-place update, got %q", sink.events[1])
	}
}

func TestRemovePlayerExactlyOne(t *testing.T) {
	cache, _ := newTestCache()

	cache.ApplyPlayer(playerRec(1))
	cache.ApplyPlayer(playerRec(2))
	cache.ApplyPlayer(playerRec(3))

	if !cache.RemovePlayer(2) {
		t.Fatalf("removal of existing id should report true")
	}
	if cache.PlayerCount() != 2 {
		t.Fatalf("exactly one entity should be removed, %d remain", cache.PlayerCount())
	}

	// Unknown id: no error, no side effect.
	if cache.RemovePlayer(99) {
		t.Fatalf("removal of unknown id should be a no-op")
	}
	if cache.PlayerCount() != 2 {
		t.Fatalf("no-op removal changed the map")
	}
}

func TestMonsterSyntheticKey(t *testing.T) {
	if got := MonsterKey(wire.Vec3{X: 1, Y: 2, Z: 3}); got != 1230 {
		t.Fatalf("key quantization changed: got %d", got)
	}

	cache, _ := newTestCache()

	a := wire.MonsterRecord{MonsterType: "goblin", Position: wire.Vec3{X: 1, Y: 2, Z: 3}, Health: 10, MaxHealth: 10}
	if !cache.ApplyMonster(a) {
		t.Fatalf("first sighting should spawn")
	}
	if cache.ApplyMonster(a) {
		t.Fatalf("same position should update, not spawn")
	}

	// Known approximation: near-identical positions collide under the
	// quantized key and share one handle.
	b := a
	b.MonsterType = "skeleton"
	b.Position = wire.Vec3{X: 1.0001, Y: 2, Z: 3}
	if cache.ApplyMonster(b) {
		t.Fatalf("colliding position should overwrite, not spawn")
	}
	if cache.MonsterCount() != 1 {
		t.Fatalf("expected one colliding entity, got %d", cache.MonsterCount())
	}

	// A clearly distinct position spawns its own entity.
	c := a
	c.Position = wire.Vec3{X: 50, Y: 2, Z: 3}
	if !cache.ApplyMonster(c) {
		t.Fatalf("distinct position should spawn")
	}
	if cache.MonsterCount() != 2 {
		t.Fatalf("expected two entities, got %d", cache.MonsterCount())
	}
}

func TestTilesAppendOnly(t *testing.T) {
	cache, sink := newTestCache()

	rec := wire.TileRecord{TileType: 1, GridX: 2, GridY: -3}
	cache.ApplyTile(rec)
	cache.ApplyTile(rec) // identical tile appends again; no reconciliation

	if cache.TileCount() != 2 {
		t.Fatalf("tiles are append-only, got %d", cache.TileCount())
	}
	if sink.events[0] != "tile placed 2,-3 at 200,-300" {
		t.Fatalf("world position should be grid × tile size: %q", sink.events[0])
	}
}

func TestClearDestroysEverything(t *testing.T) {
	cache, sink := newTestCache()

	cache.ApplyPlayer(playerRec(1))
	cache.ApplyMonster(wire.MonsterRecord{MonsterType: "goblin", Position: wire.Vec3{X: 9}})
	cache.ApplyTile(wire.TileRecord{TileType: 1})

	sink.events = nil
	cache.Clear()

	if cache.PlayerCount() != 0 || cache.MonsterCount() != 0 || cache.TileCount() != 0 {
		t.Fatalf("clear left entities: %d/%d/%d",
			cache.PlayerCount(), cache.MonsterCount(), cache.TileCount())
	}
	if len(sink.events) != 3 {
		t.Fatalf("every handle should be destroyed exactly once: %v", sink.events)
	}
}
