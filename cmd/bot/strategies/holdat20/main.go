// Command holdat20 is a reference Pig-Pen strategy: roll until the current
// turn's unbanked total reaches 20, then hold. Build for upload with:
//
//	GOOS=wasip1 GOARCH=wasm go build -o holdat20.wasm ./cmd/bot/strategies/holdat20
package main

import "github.com/aiguy110/pig-pen-harness/cmd/bot/strategies/internal/wasmguest"

const turnTarget = 20

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
	if turnTotal >= turnTarget {
		return wasmguest.Hold
	}
	return wasmguest.Roll
}

func main() {}
