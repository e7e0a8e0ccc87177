package match

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// OpCode identifies the gameplay category of a match message. Values must
// match the server's match handler.
type OpCode int

const (
	OpPlayerPosition  OpCode = 1
	OpPlayerAttack    OpCode = 2
	OpMonsterDamage   OpCode = 3
	OpMonsterDefeated OpCode = 4
	OpPlayerDeath     OpCode = 5
	OpFloorClear      OpCode = 6
	OpBreathSync      OpCode = 7
	OpPlayerJoined    OpCode = 8
	OpPlayerLeft      OpCode = 9
	OpChatMessage     OpCode = 10
	OpLootDropped     OpCode = 11
	OpPlayerInteract  OpCode = 12
)

func (op OpCode) String() string {
	switch op {
	case OpPlayerPosition:
		return "PlayerPosition"
	case OpPlayerAttack:
		return "PlayerAttack"
	case OpMonsterDamage:
		return "MonsterDamage"
	case OpMonsterDefeated:
		return "MonsterDefeated"
	case OpPlayerDeath:
		return "PlayerDeath"
	case OpFloorClear:
		return "FloorClear"
	case OpBreathSync:
		return "BreathSync"
	case OpPlayerJoined:
		return "PlayerJoined"
	case OpPlayerLeft:
		return "PlayerLeft"
	case OpChatMessage:
		return "ChatMessage"
	case OpLootDropped:
		return "LootDropped"
	case OpPlayerInteract:
		return "PlayerInteract"
	default:
		return fmt.Sprintf("OpCode(%d)", int(op))
	}
}

// MatchData is the op-coded unit carried both directions. Data is the
// base64 encoding of a JSON document;每類訊息一份 payload。
type MatchData struct {
	MatchID string `json:"match_id"`
	OpCode  OpCode `json:"op_code"`
	Data    string `json:"data"`
}

// Payload decodes the base64 data back to its JSON text.
func (d *MatchData) Payload() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return "", fmt.Errorf("decode match data: %w", err)
	}
	return string(raw), nil
}

type matchJoin struct {
	MatchID string `json:"match_id"`
}

type matchError struct {
	Message string `json:"message"`
}

// envelope is the one-field-set JSON frame exchanged on the socket.
type envelope struct {
	MatchJoin     *matchJoin  `json:"match_join,omitempty"`
	MatchDataSend *MatchData  `json:"match_data_send,omitempty"`
	MatchData     *MatchData  `json:"match_data,omitempty"`
	Error         *matchError `json:"error,omitempty"`
}

// encodeMatchData builds an outbound match_data_send frame, base64-encoding
// the JSON payload.
func encodeMatchData(matchID string, op OpCode, dataJSON string) ([]byte, error) {
	env := envelope{MatchDataSend: &MatchData{
		MatchID: matchID,
		OpCode:  op,
		Data:    base64.StdEncoding.EncodeToString([]byte(dataJSON)),
	}}
	return json.Marshal(env)
}

func encodeMatchJoin(matchID string) ([]byte, error) {
	return json.Marshal(envelope{MatchJoin: &matchJoin{MatchID: matchID}})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode match envelope: %w", err)
	}
	return env, nil
}
