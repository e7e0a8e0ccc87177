package wire

// Packet type tags. Byte 0 of every server datagram; the rest of the
// payload is type-specific.
const (
	TagKeepalive       byte = 0x00
	TagPlayerUpdate    byte = 0x01
	TagMonsterUpdate   byte = 0x02
	TagFloorTileUpdate byte = 0x03
	TagPlayerSpawn     byte = 0x04
	TagPlayerDespawn   byte = 0x05
)

// PlayerRecord is one player snapshot. Each record supersedes the previous
// one for the same id entirely; there are no partial-field updates.
type PlayerRecord struct {
	ID           uint64
	Position     Vec3 // local frame
	Health       float32
	CurrentFloor uint32
}

// MonsterRecord is one monster snapshot. The wire format carries no
// server-assigned monster identity; see replication.MonsterKey.
type MonsterRecord struct {
	MonsterType string
	Position    Vec3 // local frame
	Health      float32
	MaxHealth   float32
}

// TileRecord is one static floor tile. Grid coordinates are already in the
// local frame; world position is grid × tile size, computed by the consumer.
type TileRecord struct {
	TileType byte
	GridX    int32
	GridY    int32
}

// DecodePlayer reads the 28-byte player payload after the tag byte. Any
// field failure poisons the whole record; check the reader, not the fields.
func DecodePlayer(r *Reader) PlayerRecord {
	return PlayerRecord{
		ID:           r.ReadU64(),
		Position:     ServerToLocal(r.ReadVec3()),
		Health:       r.ReadF32(),
		CurrentFloor: r.ReadU32(),
	}
}

// DecodeMonster reads a monster payload after the tag byte.
func DecodeMonster(r *Reader) MonsterRecord {
	return MonsterRecord{
		MonsterType: r.ReadString(),
		Position:    ServerToLocal(r.ReadVec3()),
		Health:      r.ReadF32(),
		MaxHealth:   r.ReadF32(),
	}
}

// DecodeTile reads the 9-byte tile payload after the tag byte.
func DecodeTile(r *Reader) TileRecord {
	return TileRecord{
		TileType: r.ReadU8(),
		GridX:    r.ReadI32(),
		GridY:    r.ReadI32(),
	}
}
