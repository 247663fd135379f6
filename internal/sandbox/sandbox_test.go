package sandbox

import (
	"errors"
	"testing"

	"github.com/bytecodealliance/wasmtime-go/v39"

	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
)

const pageSize = 65536

// watAlwaysRoll never consults its input and always answers Roll.
const watAlwaysRoll = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
  (func (export "should_roll") (param i32 i32) (result i32) (i32.const 1))
)`

// watAlwaysHold never consults its input and always answers Hold.
const watAlwaysHold = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
  (func (export "should_roll") (param i32 i32) (result i32) (i32.const 0))
)`

// watTraps traps unconditionally inside should_roll.
const watTraps = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
  (func (export "should_roll") (param i32 i32) (result i32) (unreachable))
)`

// watGrowsPastLimit tries to grow its memory by far more than any
// reasonable per-bot budget on every alloc call, and returns a sentinel -1
// "pointer" when the grow is denied by the store's limiter.
const watGrowsPastLimit = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32)
    (local $grown i32)
    (local.set $grown (memory.grow (i32.const 1000)))
    (if (i32.lt_s (local.get $grown) (i32.const 0))
      (then (return (i32.const -1))))
    (i32.const 0))
  (func (export "should_roll") (param i32 i32) (result i32) (i32.const 0))
)`

// watMissingShouldRoll omits the should_roll export entirely.
const watMissingShouldRoll = `
(module
  (memory (export "memory") 1)
  (func (export "alloc") (param i32) (result i32) (i32.const 0))
)`

func compileWat(t *testing.T, host *Host, wat string) *wasmtime.Module {
	t.Helper()
	wasmBytes, err := wasmtime.Wat2Wasm(wat)
	if err != nil {
		t.Fatalf("Wat2Wasm: %v", err)
	}
	module, err := host.Compile(wasmBytes)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return module
}

func testState() pigpen.GameState {
	return pigpen.GameState{
		AllBankedScores: []uint32{0, 0},
		TurnHistory:     []pigpen.TurnHistoryEntry{},
	}
}

func TestStrategy_CleanRoll(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watAlwaysRoll)
	strategy, err := NewStrategy(host, module, 16*pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	decision, err := strategy.ShouldRoll(testState())
	if err != nil {
		t.Fatalf("ShouldRoll: %v", err)
	}
	if decision != pigpen.Roll {
		t.Fatalf("decision = %v, want Roll", decision)
	}
	if strategy.MemoryLimitHit() {
		t.Fatal("MemoryLimitHit should be false for a clean call")
	}
}

func TestStrategy_CleanHold(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watAlwaysHold)
	strategy, err := NewStrategy(host, module, 16*pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	decision, err := strategy.ShouldRoll(testState())
	if err != nil {
		t.Fatalf("ShouldRoll: %v", err)
	}
	if decision != pigpen.Hold {
		t.Fatalf("decision = %v, want Hold", decision)
	}
}

func TestStrategy_TrapPropagatesAsStrategyFault(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watTraps)
	strategy, err := NewStrategy(host, module, 16*pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	_, err = strategy.ShouldRoll(testState())
	if err == nil {
		t.Fatal("expected an error from a trapping guest")
	}
	var fault *StrategyFault
	if !errors.As(err, &fault) {
		t.Fatalf("error = %v, want *StrategyFault", err)
	}
	if strategy.MemoryLimitHit() {
		t.Fatal("an unreachable trap must not be classified as a memory breach")
	}
}

func TestStrategy_MemoryBreachAbsorbedIntoHold(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watGrowsPastLimit)
	// One page is the module's static minimum; capping the store at exactly
	// one page guarantees the guest's attempt to grow by 1000 more pages is
	// denied.
	strategy, err := NewStrategy(host, module, pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	decision, err := strategy.ShouldRoll(testState())
	if err != nil {
		t.Fatalf("ShouldRoll should absorb the memory breach, got error: %v", err)
	}
	if decision != pigpen.Hold {
		t.Fatalf("decision = %v, want Hold (forced by the absorbed breach)", decision)
	}
	if !strategy.MemoryLimitHit() {
		t.Fatal("MemoryLimitHit should latch true after a denied grow")
	}

	// The latch must persist across subsequent calls, even clean ones.
	decision, err = strategy.ShouldRoll(testState())
	if err != nil {
		t.Fatalf("ShouldRoll: %v", err)
	}
	if decision != pigpen.Hold {
		t.Fatalf("decision = %v, want Hold", decision)
	}
	if !strategy.MemoryLimitHit() {
		t.Fatal("MemoryLimitHit must stay latched")
	}
}

func TestStrategy_PeakMemoryMonotonic(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watAlwaysHold)
	strategy, err := NewStrategy(host, module, 16*pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	last := strategy.PeakMemoryBytes()
	for i := 0; i < 3; i++ {
		if _, err := strategy.ShouldRoll(testState()); err != nil {
			t.Fatalf("ShouldRoll: %v", err)
		}
		peak := strategy.PeakMemoryBytes()
		if peak < last {
			t.Fatalf("peak memory decreased: %d -> %d", last, peak)
		}
		last = peak
	}
}

func TestStrategy_CurrentMemoryTracksLastCallBoundary(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watAlwaysHold)
	strategy, err := NewStrategy(host, module, 16*pageSize)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}

	if strategy.CurrentMemoryBytes() != 0 {
		t.Fatalf("current memory = %d, want 0 before any call", strategy.CurrentMemoryBytes())
	}

	if _, err := strategy.ShouldRoll(testState()); err != nil {
		t.Fatalf("ShouldRoll: %v", err)
	}
	if strategy.CurrentMemoryBytes() == 0 {
		t.Fatal("current memory should reflect the guest's footprint after a call")
	}
	if strategy.CurrentMemoryBytes() != strategy.PeakMemoryBytes() {
		t.Fatalf("current = %d, peak = %d, want equal after a single call with no growth",
			strategy.CurrentMemoryBytes(), strategy.PeakMemoryBytes())
	}
}

func TestNewStrategy_MissingExport(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	module := compileWat(t, host, watMissingShouldRoll)

	_, err = NewStrategy(host, module, 16*pageSize)
	if err == nil {
		t.Fatal("expected an error for a module missing should_roll")
	}
	var fault *StrategyFault
	if !errors.As(err, &fault) {
		t.Fatalf("error = %v, want *StrategyFault", err)
	}
}

func TestHost_Validate(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	wasmBytes, err := wasmtime.Wat2Wasm(watAlwaysHold)
	if err != nil {
		t.Fatalf("Wat2Wasm: %v", err)
	}
	if err := host.Validate(wasmBytes); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestHost_ValidateRejectsMalformedModule(t *testing.T) {
	host, err := NewHost()
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	if err := host.Validate([]byte("not a wasm module")); err == nil {
		t.Fatal("expected an error for malformed wasm bytes")
	}
}
