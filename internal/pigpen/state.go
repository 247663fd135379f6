// Package pigpen implements the Pig-Pen game rules engine: the per-turn
// decision loop, endgame detection and tie-break, and payout computation.
// It is independent of how a seat's decisions are produced — see Strategy.
package pigpen

// Decision is a seat's single-shot response to a GameState query.
type Decision int

const (
	// Hold ends the current turn and banks the accumulated score.
	Hold Decision = iota
	// Roll continues the turn with another dice roll.
	Roll
)

// DiceRoll is a single roll of two six-sided dice.
type DiceRoll struct {
	A uint32 `json:"a"`
	B uint32 `json:"b"`
}

// Sum returns the total of both dice.
func (d DiceRoll) Sum() uint32 { return d.A + d.B }

// SnakeEyes reports whether both dice show 1.
func (d DiceRoll) SnakeEyes() bool { return d.A == 1 && d.B == 1 }

// Doubles reports whether both dice show the same value.
func (d DiceRoll) Doubles() bool { return d.A == d.B }

// TurnHistoryEntry records one roll made during the game, tagged with the
// seat that rolled it. Append-only within a single game.
type TurnHistoryEntry struct {
	SeatIndex uint32   `json:"seat_index"`
	Roll      DiceRoll `json:"roll"`
}

// PlayerState is one seat's mutable state for the duration of a game.
type PlayerState struct {
	Score          uint32
	BankedScore    uint32
	TurnStartScore uint32
	DoublesCount   uint32
}

// GameState is the immutable snapshot handed to a strategy at each decision
// point. AllBankedScores and TurnHistory are defensive copies — a strategy
// must never be able to mutate engine-owned state through them. Field names
// mirror the wire format a sandboxed strategy receives (internal/sandbox
// serializes this struct to JSON across the guest/host boundary).
type GameState struct {
	CurrentSeatIndex   uint32             `json:"current_seat_index"`
	CurrentBankedScore uint32             `json:"current_banked_score"`
	CurrentTotalScore  uint32             `json:"current_total_score"`
	AllBankedScores    []uint32           `json:"all_banked_scores"`
	TurnHistory        []TurnHistoryEntry `json:"turn_history"`
}

// Strategy is the decision-making capability the turn procedure calls into.
// Any backend satisfying this single method may plug in: a sandboxed
// component (internal/sandbox), a native Go function, or a deterministic
// stub in tests.
type Strategy interface {
	ShouldRoll(state GameState) (Decision, error)
}

// Roller produces dice rolls. Production code uses a math/rand-backed
// roller; tests inject a FixedRoller to drive the engine deterministically.
type Roller interface {
	Roll() DiceRoll
}
