package wire

import "testing"

// buildPlayerPayload encodes a player record in the server's wire layout
// (after the tag byte): u64 id, server-frame vec3, f32 health, u32 floor.
func buildPlayerPayload(id uint64, serverPos Vec3, health float32, floor uint32) []byte {
	w := NewWriter()
	w.WriteU64(id)
	w.WriteVec3(serverPos)
	w.WriteF32(health)
	w.WriteU32(floor)
	return w.Bytes()
}

func TestDecodePlayer(t *testing.T) {
	payload := buildPlayerPayload(42, Vec3{X: 1, Y: 2, Z: 3}, 87.5, 7)
	if len(payload) != 28 {
		t.Fatalf("player payload should be 28 bytes, got %d", len(payload))
	}

	r := NewReader(payload)
	rec := DecodePlayer(r)
	if r.HasError() {
		t.Fatalf("unexpected decode error")
	}
	if rec.ID != 42 {
		t.Fatalf("id: got %d", rec.ID)
	}
	if rec.Position != (Vec3{X: 300, Y: 100, Z: 200}) {
		t.Fatalf("position not transformed: %+v", rec.Position)
	}
	if rec.Health != 87.5 {
		t.Fatalf("health: got %v", rec.Health)
	}
	if rec.CurrentFloor != 7 {
		t.Fatalf("floor: got %d", rec.CurrentFloor)
	}
	if r.Remaining() != 0 {
		t.Fatalf("decoder left %d bytes", r.Remaining())
	}
}

func TestDecodeMonster(t *testing.T) {
	w := NewWriter()
	w.WriteString("goblin")
	w.WriteVec3(Vec3{X: 4, Y: 5, Z: 6})
	w.WriteF32(30)
	w.WriteF32(50)

	r := NewReader(w.Bytes())
	rec := DecodeMonster(r)
	if r.HasError() {
		t.Fatalf("unexpected decode error")
	}
	if rec.MonsterType != "goblin" {
		t.Fatalf("type: got %q", rec.MonsterType)
	}
	if rec.Position != (Vec3{X: 600, Y: 400, Z: 500}) {
		t.Fatalf("position not transformed: %+v", rec.Position)
	}
	if rec.Health != 30 || rec.MaxHealth != 50 {
		t.Fatalf("health: got %v/%v", rec.Health, rec.MaxHealth)
	}
}

func TestDecodeTile(t *testing.T) {
	w := NewWriter()
	w.WriteU8(2)
	w.WriteI32(-3)
	w.WriteI32(12)

	payload := w.Bytes()
	if len(payload) != 9 {
		t.Fatalf("tile payload should be 9 bytes, got %d", len(payload))
	}

	r := NewReader(payload)
	rec := DecodeTile(r)
	if r.HasError() {
		t.Fatalf("unexpected decode error")
	}
	// Grid coordinates pass through untransformed.
	if rec.TileType != 2 || rec.GridX != -3 || rec.GridY != 12 {
		t.Fatalf("got %+v", rec)
	}
}

func TestDecodeTileTruncated(t *testing.T) {
	w := NewWriter()
	w.WriteU8(2)
	w.WriteI32(-3)
	w.WriteI32(12)
	truncated := w.Bytes()[:5] // final i32 missing

	r := NewReader(truncated)
	DecodeTile(r)
	if r.IsValid() {
		t.Fatalf("truncated tile should not be valid")
	}
	if !r.HasError() {
		t.Fatalf("truncated tile should set the failure flag")
	}
}

func TestDecodePlayerTruncated(t *testing.T) {
	full := buildPlayerPayload(42, Vec3{X: 1, Y: 2, Z: 3}, 87.5, 7)
	for cut := 0; cut < len(full); cut++ {
		r := NewReader(full[:cut])
		DecodePlayer(r)
		if !r.HasError() {
			t.Fatalf("cut at %d bytes: expected failure", cut)
		}
	}
}
