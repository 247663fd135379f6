// Command allin is a reference Pig-Pen strategy that never holds
// voluntarily -- it always rolls, relying entirely on the turn engine's
// bust rules to end its turns. Useful as a worst-case opponent for testing
// the tournament runner's aggregation. Build for upload with:
//
//	GOOS=wasip1 GOARCH=wasm go build -o allin.wasm ./cmd/bot/strategies/allin
package main

import "github.com/aiguy110/pig-pen-harness/cmd/bot/strategies/internal/wasmguest"

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	return wasmguest.Alloc(size)
}

//go:wasmexport should_roll
func shouldRoll(ptr, length uint32) uint32 {
	return wasmguest.Roll
}

func main() {}
