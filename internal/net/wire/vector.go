package wire

// Vec3 is a 3-component float vector as it appears on the wire.
type Vec3 struct {
	X, Y, Z float32
}

// Coordinate frames:
//
//	server: Y-up, meters        (X right, Y up, Z forward)
//	local:  Z-up, centimeters   (X forward, Y right, Z up)
//
// The two functions below are exact inverses and must stay that way; every
// inbound position goes through ServerToLocal and every outbound position
// through LocalToServer.

// ServerToLocal converts a server-frame position to the local frame:
// (x, y, z) → (z, x, y), meters → centimeters.
func ServerToLocal(v Vec3) Vec3 {
	return Vec3{X: v.Z * 100, Y: v.X * 100, Z: v.Y * 100}
}

// LocalToServer converts a local-frame position to the server frame:
// (x, y, z) → (y, z, x), centimeters → meters.
func LocalToServer(v Vec3) Vec3 {
	return Vec3{X: v.Y / 100, Y: v.Z / 100, Z: v.X / 100}
}
