package main

import (
	"github.com/towergo/client/internal/data"
	"github.com/towergo/client/internal/net/wire"
	"github.com/towergo/client/internal/replication"
	"go.uber.org/zap"
)

// consoleSink is the headless stand-in for the presentation layer: every
// lifecycle event becomes a log line, with display names resolved through
// the YAML tables. Handles are the view structs themselves.
type consoleSink struct {
	tiles    *data.TileTable
	monsters *data.MonsterCatalog
	log      *zap.Logger
}

type playerView struct {
	rec wire.PlayerRecord
}

type monsterView struct {
	key int64
	rec wire.MonsterRecord
}

type tileView struct {
	rec   wire.TileRecord
	world wire.Vec3
}

func newConsoleSink(tiles *data.TileTable, monsters *data.MonsterCatalog, log *zap.Logger) *consoleSink {
	return &consoleSink{tiles: tiles, monsters: monsters, log: log}
}

func (s *consoleSink) PlayerSpawned(rec wire.PlayerRecord) replication.Handle {
	s.log.Info("玩家出現",
		zap.Uint64("id", rec.ID),
		zap.Float32("hp", rec.Health),
		zap.Uint32("floor", rec.CurrentFloor),
	)
	return &playerView{rec: rec}
}

func (s *consoleSink) PlayerUpdated(h replication.Handle, rec wire.PlayerRecord) {
	v := h.(*playerView)
	v.rec = rec
	s.log.Debug("玩家更新", zap.Uint64("id", rec.ID), zap.Float32("hp", rec.Health))
}

func (s *consoleSink) PlayerDespawned(h replication.Handle) {
	v := h.(*playerView)
	s.log.Info("玩家離開", zap.Uint64("id", v.rec.ID))
}

func (s *consoleSink) MonsterSpawned(key int64, rec wire.MonsterRecord) replication.Handle {
	tpl := s.monsters.Get(rec.MonsterType)
	s.log.Info("怪物出現",
		zap.String("name", tpl.DisplayName),
		zap.Float32("hp", rec.Health),
		zap.Float32("max_hp", rec.MaxHealth),
		zap.Bool("boss", tpl.Boss),
	)
	return &monsterView{key: key, rec: rec}
}

func (s *consoleSink) MonsterUpdated(h replication.Handle, rec wire.MonsterRecord) {
	v := h.(*monsterView)
	v.rec = rec
	s.log.Debug("怪物更新", zap.Int64("key", v.key), zap.Float32("hp", rec.Health))
}

func (s *consoleSink) MonsterRemoved(h replication.Handle) {
	v := h.(*monsterView)
	s.log.Debug("怪物清除", zap.Int64("key", v.key))
}

func (s *consoleSink) TilePlaced(rec wire.TileRecord, worldPos wire.Vec3) replication.Handle {
	tpl := s.tiles.Get(rec.TileType)
	s.log.Debug("地板放置",
		zap.String("tile", tpl.Name),
		zap.Int32("gx", rec.GridX),
		zap.Int32("gy", rec.GridY),
	)
	return &tileView{rec: rec, world: worldPos}
}

func (s *consoleSink) TileRemoved(h replication.Handle) {
	_ = h.(*tileView)
}
