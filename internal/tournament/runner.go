// Package tournament implements the Tournament Runner: it plays a fixed
// roster of sandboxed strategies through N games of Pig-Pen, aggregating
// wins, money, and peak memory per seat, and applying permanent
// disqualification on a memory-limit breach.
package tournament

import (
	"fmt"

	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
	"github.com/aiguy110/pig-pen-harness/internal/sandbox"
)

// totalMemoryBudgetBytes is the process-wide ceiling the single-worker
// simulation queue relies on to keep total sandbox memory bounded
// regardless of seat count.
const totalMemoryBudgetBytes = 200 * 1024 * 1024

// MemoryLimitBytes computes the per-participant memory ceiling for a
// tournament with the given number of seats.
func MemoryLimitBytes(numParticipants int) uint64 {
	if numParticipants <= 0 {
		return totalMemoryBudgetBytes
	}
	return totalMemoryBudgetBytes / uint64(numParticipants)
}

// Strategy is the capability a Participant calls into: a pigpen.Strategy
// that also reports its sandbox memory accounting. *sandbox.Strategy
// satisfies this; tests may supply a fake.
type Strategy interface {
	pigpen.Strategy
	PeakMemoryBytes() uint64
	MemoryLimitHit() bool
}

// Participant is one seat's strategy handle plus its permanent
// disqualification state, carried across every game of a tournament.
type Participant struct {
	BotID        string
	Strategy     Strategy
	Disqualified bool
}

// BotSource is an uploaded strategy's content, ready for sandbox
// instantiation.
type BotSource struct {
	BotID     string
	WasmBytes []byte
}

// Instantiate compiles and instantiates one sandboxed Strategy per bot
// source, each capped at the per-seat memory budget for a roster of this
// size.
func Instantiate(host *sandbox.Host, sources []BotSource) ([]*Participant, error) {
	limit := MemoryLimitBytes(len(sources))
	participants := make([]*Participant, len(sources))
	for i, src := range sources {
		module, err := host.Compile(src.WasmBytes)
		if err != nil {
			return nil, fmt.Errorf("compile bot %s: %w", src.BotID, err)
		}
		strategy, err := sandbox.NewStrategy(host, module, limit)
		if err != nil {
			return nil, fmt.Errorf("instantiate bot %s: %w", src.BotID, err)
		}
		participants[i] = &Participant{BotID: src.BotID, Strategy: strategy}
	}
	return participants, nil
}

// ParticipantResult is one seat's aggregated outcome across every game of a
// tournament.
type ParticipantResult struct {
	SeatIndex       int
	BotID           string
	GamesWon        int
	NetMoney        int64
	PeakMemoryBytes uint64
	Disqualified    bool
}

// ProgressFunc is invoked at progress checkpoints (and once more at the
// run's end) with the number of games completed so far.
type ProgressFunc func(gamesCompleted int)

// progressCheckpoint returns the games-completed interval between progress
// callbacks: at most every max(5000, numGames/100) games.
func progressCheckpoint(numGames int) int {
	c := numGames / 100
	if c < 5000 {
		c = 5000
	}
	return c
}

// Run plays numGames serial games among participants, reusing the same
// strategy instances across every game so a strategy's internal state (and
// its memory accounting) persists and accrues across the whole tournament.
//
// A participant whose strategy call ever has its memory grow denied is
// permanently disqualified starting with the very next game; once set, the
// latch never clears. If the original roster had more than one seat and
// disqualification has whittled the active count down to one or zero, the
// tournament stops early rather than playing out the remaining games — a
// roster that started with exactly one seat is never subject to this
// early-termination rule and plays the full schedule.
//
// An error returned here is always an unabsorbed sandbox.StrategyFault
// (or a wrapped variant) propagated out of a game; the caller must fail
// the whole tournament on it, not just the offending seat.
func Run(participants []*Participant, numGames int, roller pigpen.Roller, onProgress ProgressFunc) ([]ParticipantResult, error) {
	n := len(participants)
	results := make([]ParticipantResult, n)
	for i, p := range participants {
		results[i].SeatIndex = i
		results[i].BotID = p.BotID
	}

	checkpoint := progressCheckpoint(numGames)
	gamesPlayed := 0

	for gamesPlayed < numGames {
		if n > 1 && activeCount(participants) <= 1 {
			break
		}

		seats := make([]pigpen.PlaySeat, n)
		for i, p := range participants {
			seats[i] = pigpen.PlaySeat{Strategy: p.Strategy, Disqualified: p.Disqualified}
		}

		seatResults, err := pigpen.PlayGame(seats, roller)
		if err != nil {
			return results, fmt.Errorf("play game %d: %w", gamesPlayed+1, err)
		}
		gamesPlayed++

		for i, p := range participants {
			if p.Disqualified {
				continue
			}
			if seatResults[i].Won {
				results[i].GamesWon++
			}
			results[i].NetMoney += seatResults[i].Money

			if peak := p.Strategy.PeakMemoryBytes(); peak > results[i].PeakMemoryBytes {
				results[i].PeakMemoryBytes = peak
			}
			if p.Strategy.MemoryLimitHit() {
				p.Disqualified = true
			}
			results[i].Disqualified = p.Disqualified
		}

		if onProgress != nil && gamesPlayed%checkpoint == 0 {
			onProgress(gamesPlayed)
		}
	}

	if onProgress != nil {
		onProgress(gamesPlayed)
	}
	return results, nil
}

func activeCount(participants []*Participant) int {
	active := 0
	for _, p := range participants {
		if !p.Disqualified {
			active++
		}
	}
	return active
}
