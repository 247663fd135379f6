// Command banked50 is a reference Pig-Pen strategy: while the seat's banked
// score is below 50, roll until busting or reaching a turn total of 20; once
// the banked score is 50 or more, hold at a turn total of 10 instead. Build
// for upload with:
//
//	GOOS=wasip1 GOARCH=wasm go build -o banked50.wasm ./cmd/bot/strategies/banked50
package main

import "github.com/aiguy110/pig-pen-harness/cmd/bot/strategies/internal/wasmguest"

const (
	bankedThreshold = 50
	turnCap         = 20
)

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	return wasmguest.Alloc(size)
}

//go:wasmexport should_roll
func shouldRoll(ptr, length uint32) uint32 {
	state, err := wasmguest.Decode(ptr, length)
	if err != nil {
		return wasmguest.Hold
	}
	turnTotal := state.CurrentTotalScore - state.CurrentBankedScore
	if state.CurrentBankedScore >= bankedThreshold {
		// Already past the threshold: play it safe with a shorter turn.
		if turnTotal >= turnCap/2 {
			return wasmguest.Hold
		}
		return wasmguest.Roll
	}
	if turnTotal >= turnCap {
		return wasmguest.Hold
	}
	return wasmguest.Roll
}

func main() {}
