package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v39"

	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
)

// Strategy is one instantiated, sandboxed guest module. It satisfies
// pigpen.Strategy, so the game engine never needs to know a decision came
// from wasm rather than a native Go implementation.
type Strategy struct {
	store      *wasmtime.Store
	instance   *wasmtime.Instance
	memory     *wasmtime.Memory
	alloc      *wasmtime.Func
	shouldRoll *wasmtime.Func

	memoryLimitBytes uint64
	currentBytes     uint64
	peakBytes        uint64
	memoryLimitHit   bool
}

// NewStrategy instantiates a compiled module under a fresh store whose
// linear memory is capped at memoryLimitBytes — the Runner computes this as
// the process-wide memory budget divided by the tournament's seat count
// before calling here for each participant.
func NewStrategy(host *Host, module *wasmtime.Module, memoryLimitBytes uint64) (*Strategy, error) {
	store := wasmtime.NewStore(host.engine)
	store.Limiter(int64(memoryLimitBytes), -1, -1, -1, -1)
	if err := store.SetFuel(callFuel); err != nil {
		return nil, fmt.Errorf("set initial fuel: %w", err)
	}

	wasiConfig := wasmtime.NewWasiConfig()
	store.SetWasi(wasiConfig)

	linker := wasmtime.NewLinker(host.engine)
	if err := linker.DefineWasi(); err != nil {
		return nil, fmt.Errorf("define wasi imports: %w", err)
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return nil, classify(fmt.Errorf("instantiate module: %w", err))
	}

	memExtern := instance.GetExport(store, "memory")
	if memExtern == nil || memExtern.Memory() == nil {
		return nil, &StrategyFault{Err: fmt.Errorf("module does not export a memory named %q", "memory")}
	}

	allocFn := instance.GetFunc(store, "alloc")
	if allocFn == nil {
		return nil, &StrategyFault{Err: fmt.Errorf("module does not export %q", "alloc")}
	}

	shouldRollFn := instance.GetFunc(store, "should_roll")
	if shouldRollFn == nil {
		return nil, &StrategyFault{Err: fmt.Errorf("module does not export %q", "should_roll")}
	}

	return &Strategy{
		store:            store,
		instance:         instance,
		memory:           memExtern.Memory(),
		alloc:            allocFn,
		shouldRoll:       shouldRollFn,
		memoryLimitBytes: memoryLimitBytes,
	}, nil
}

// ShouldRoll encodes state as JSON, writes it into the guest's linear
// memory via its exported allocator, and calls the guest's should_roll
// export. It implements pigpen.Strategy.
//
// A memory-limit breach is absorbed here, never returned to the caller: it
// latches memoryLimitHit and resolves as a forced Hold, exactly as if the
// strategy had chosen to hold, so the turn and game finish cleanly. Only an
// unclassified trap (a genuine StrategyFault) is returned as an error, for
// the Runner to fail the tournament over.
func (s *Strategy) ShouldRoll(state pigpen.GameState) (pigpen.Decision, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return pigpen.Hold, &StrategyFault{Err: fmt.Errorf("marshal game state: %w", err)}
	}

	// SetFuel resets the budget to callFuel for this call rather than
	// accumulating on top of whatever remains from the previous one, so a
	// strategy can never bank unused fuel across calls.
	if err := s.store.SetFuel(callFuel); err != nil {
		return pigpen.Hold, &StrategyFault{Err: fmt.Errorf("set fuel: %w", err)}
	}

	ptrVal, err := s.alloc.Call(s.store, int32(len(payload)))
	if err != nil {
		return s.absorbOrFault(classify(fmt.Errorf("call alloc: %w", err)))
	}
	ptr, ok := ptrVal.(int32)
	if !ok {
		return pigpen.Hold, &StrategyFault{Err: fmt.Errorf("alloc returned %T, want int32", ptrVal)}
	}

	s.trackMemory()

	data := s.memory.UnsafeData(s.store)
	start := int(ptr)
	end := start + len(payload)
	if ptr < 0 || start < 0 || end > len(data) {
		// A bump allocator whose backing memory.grow was denied by the
		// store's limiter typically hands back a sentinel or stale
		// pointer rather than trapping outright. Treat that the same as
		// any other limiter denial.
		return s.absorbOrFault(&MemoryLimitFault{Err: fmt.Errorf("alloc returned out-of-bounds pointer %d for %d bytes", ptr, len(payload))})
	}
	copy(data[start:end], payload)

	resultVal, err := s.shouldRoll.Call(s.store, ptr, int32(len(payload)))
	if err != nil {
		return s.absorbOrFault(classify(fmt.Errorf("call should_roll: %w", err)))
	}
	s.trackMemory()

	result, ok := resultVal.(int32)
	if !ok {
		return pigpen.Hold, &StrategyFault{Err: fmt.Errorf("should_roll returned %T, want int32", resultVal)}
	}

	switch result {
	case 0:
		return pigpen.Hold, nil
	case 1:
		return pigpen.Roll, nil
	default:
		return pigpen.Hold, &StrategyFault{Err: fmt.Errorf("should_roll returned invalid decision code %d", result)}
	}
}

// absorbOrFault implements the host's fault classification: a
// MemoryLimitFault is latched and absorbed into a forced Hold; anything
// else propagates as an error for the Runner to treat as a tournament
// failure.
func (s *Strategy) absorbOrFault(classified error) (pigpen.Decision, error) {
	var memErr *MemoryLimitFault
	if errors.As(classified, &memErr) {
		s.memoryLimitHit = true
		return pigpen.Hold, nil
	}
	return pigpen.Hold, classified
}

// trackMemory samples the guest's linear-memory footprint at a call
// boundary, updating both current_memory_bytes and peak_memory_bytes the
// way the spec's resource-limiter step describes. wasmtime-go's v39
// Store.Limiter only exposes static quotas (no per-grow-request callback
// the way Rust's ResourceLimiter trait does), so there is no hook to
// update current_memory_bytes at the instant each memory.grow is
// requested; sampling it here, right after each guest call, is the
// closest observable equivalent the bound API allows.
func (s *Strategy) trackMemory() {
	current := uint64(len(s.memory.UnsafeData(s.store)))
	s.currentBytes = current
	if current > s.peakBytes {
		s.peakBytes = current
	}
}

// CurrentMemoryBytes reports the guest's linear-memory footprint as of the
// most recent call boundary.
func (s *Strategy) CurrentMemoryBytes() uint64 { return s.currentBytes }

// PeakMemoryBytes reports the largest linear-memory footprint observed
// across every call made through this strategy so far.
func (s *Strategy) PeakMemoryBytes() uint64 { return s.peakBytes }

// MemoryLimitBytes reports the ceiling this strategy's store was created
// with.
func (s *Strategy) MemoryLimitBytes() uint64 { return s.memoryLimitBytes }

// MemoryLimitHit reports whether any call into this instance has ever been
// classified as a memory-limit breach: a call error whose text matches
// memoryFaultPattern, or an alloc result that points outside the guest's
// memory. A denied memory.grow that the guest recovers from without either
// of those is not seen and does not set it. It latches permanently: once
// true, it never resets for the lifetime of the instance. The Runner treats
// this as grounds for permanently disqualifying the seat.
func (s *Strategy) MemoryLimitHit() bool { return s.memoryLimitHit }
