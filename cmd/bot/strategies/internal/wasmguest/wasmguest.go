// Package wasmguest is the small runtime shared by every reference
// strategy in this directory: a single-buffer allocator satisfying the host's
// alloc/should_roll ABI (internal/sandbox/strategy.go) and a GameState type
// whose JSON tags mirror internal/pigpen.GameState exactly, since these
// binaries never import the main module -- they are compiled standalone
// for wasm32-wasip1 and only share a wire format with it.
package wasmguest

import (
	"encoding/json"
	"unsafe"
)

// buf holds the most recent allocation. A strategy call is synchronous and
// single-threaded from the host's perspective, so one live buffer at a time
// is enough; keeping it as a package var is what stops the Go GC from
// reclaiming it between alloc and should_roll.
var buf []byte

// DiceRoll mirrors internal/pigpen.DiceRoll's wire format.
type DiceRoll struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

// TurnHistoryEntry mirrors internal/pigpen.TurnHistoryEntry's wire format.
type TurnHistoryEntry struct {
	SeatIndex uint32   `json:"seat_index"`
	Roll      DiceRoll `json:"roll"`
}

// GameState mirrors internal/pigpen.GameState's wire format.
type GameState struct {
	CurrentSeatIndex   uint32             `json:"current_seat_index"`
	CurrentBankedScore uint32             `json:"current_banked_score"`
	CurrentTotalScore  uint32             `json:"current_total_score"`
	AllBankedScores    []uint32           `json:"all_banked_scores"`
	TurnHistory        []TurnHistoryEntry `json:"turn_history"`
}

// Alloc implements the guest side of the host's allocator call: it replaces
// buf with a fresh slice of size bytes and returns a pointer into this module's own linear memory for
// the host to copy the encoded GameState into.
func Alloc(size uint32) uint32 {
	buf = make([]byte, size)
	if size == 0 {
		return 0
	}
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}

// Decode reads length bytes back out of linear memory at ptr (the same
// buffer Alloc just handed out) and unmarshals it as a GameState.
func Decode(ptr, length uint32) (GameState, error) {
	data := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	var state GameState
	err := json.Unmarshal(data, &state)
	return state, err
}

// Roll and Hold are the two decision codes the host's should_roll export
// contract expects back.
const (
	Hold uint32 = 0
	Roll uint32 = 1
)
