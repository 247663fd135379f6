// Package sandbox hosts untrusted strategy binaries inside wasmtime, the
// same engine the reference implementation's component-model prototype was
// built on (see game.rs in the project history). Go has no equivalent of
// wit-bindgen's generated component bindings, so strategies here are plain
// core wasm modules speaking a small exported-function ABI instead of a WIT
// world: a guest exports alloc, should_roll, and memory, the host encodes
// each GameState query as JSON and writes it into guest memory, and the
// guest returns a single i32 decision code (0 = hold, 1 = roll).
//
// Every call is bounded two ways, both grounded in the original's defenses:
// a ResourceLimiter-equivalent memory ceiling (wasmtime-go's Store.Limiter)
// enforces the per-bot memory budget the Runner computes, and a fuel budget
// bounds runaway loops without relying on a wall-clock watchdog goroutine.
package sandbox

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v39"

	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
)

// callFuel bounds a single should_roll invocation. It is generous enough
// that no reasonable strategy (a handful of comparisons and arithmetic over
// a bounded turn history) should ever approach it; hitting it classifies as
// a StrategyFault, not a timeout, since wasmtime's fuel accounting is
// deterministic and host-independent.
const callFuel = 10_000_000

// Host owns the wasmtime engine shared across every strategy instantiated
// in one process. Engines are safe for concurrent use, but this harness
// never instantiates two tournaments concurrently (internal/simqueue runs
// one at a time), so sharing is purely for compilation-cache reuse.
type Host struct {
	engine *wasmtime.Engine
}

// NewHost builds the shared wasmtime engine. Fuel consumption is enabled
// once here, globally, since it can't be toggled per store.
func NewHost() (*Host, error) {
	cfg := wasmtime.NewConfig()
	cfg.SetConsumeFuel(true)
	engine := wasmtime.NewEngineWithConfig(cfg)
	return &Host{engine: engine}, nil
}

// Compile validates that wasmBytes is a loadable wasm module and returns its
// compiled form; nothing is cached, so each call compiles afresh. Called once at bot-upload time (internal/handler) so a
// malformed upload is rejected with a 422 before it ever reaches a
// tournament, and again whenever a tournament instantiates a participant.
func (h *Host) Compile(wasmBytes []byte) (*wasmtime.Module, error) {
	module, err := wasmtime.NewModule(h.engine, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile wasm module: %w", err)
	}
	return module, nil
}

// validationMemoryLimitBytes is generous on purpose: upload-time validation
// only needs to prove the module instantiates and answers one query, not
// that it fits a tournament's per-bot budget.
const validationMemoryLimitBytes = 64 * 1024 * 1024

// Validate compiles wasmBytes and exercises it with one synthetic
// should_roll call, surfacing any wiring problem (missing export, bad
// return type, immediate trap) as an error the upload handler turns into a
// 422 instead of letting it reach a tournament.
func (h *Host) Validate(wasmBytes []byte) error {
	module, err := h.Compile(wasmBytes)
	if err != nil {
		return err
	}
	strategy, err := NewStrategy(h, module, validationMemoryLimitBytes)
	if err != nil {
		return err
	}
	_, err = strategy.ShouldRoll(pigpenValidationState())
	return err
}

func pigpenValidationState() pigpen.GameState {
	return pigpen.GameState{
		AllBankedScores: []uint32{0},
		TurnHistory:     []pigpen.TurnHistoryEntry{},
	}
}

