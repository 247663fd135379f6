package pigpen

import (
	"errors"
	"testing"
)

// holdAfterN holds after the strategy has been asked n times; it rolls on
// every prior query. A query only happens between rolls (PlayTurn never
// asks before the first roll of a turn).
type holdAfterN struct {
	n     int
	asked int
}

func (h *holdAfterN) ShouldRoll(GameState) (Decision, error) {
	h.asked++
	if h.asked >= h.n {
		return Hold, nil
	}
	return Roll, nil
}

func TestPlayTurn_SumOfSevenResetsToTurnStart(t *testing.T) {
	player := &PlayerState{Score: 10}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 3, B: 4}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 100}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}

	if player.Score != 10 {
		t.Fatalf("score = %d, want 10 (reset to turn-start)", player.Score)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
}

func TestPlayTurn_TripleDoublesBusts(t *testing.T) {
	player := &PlayerState{Score: 10, BankedScore: 10}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 2, B: 2}, {A: 3, B: 3}, {A: 5, B: 5}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 100}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}

	if player.Score != 0 || player.BankedScore != 0 {
		t.Fatalf("player = %+v, want score and banked score both 0 after triple doubles", player)
	}
	if len(history) != 3 {
		t.Fatalf("history len = %d, want 3", len(history))
	}
}

func TestPlayTurn_SnakeEyesBusts(t *testing.T) {
	player := &PlayerState{Score: 40, BankedScore: 40}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 1, B: 1}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 100}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if player.Score != 0 || player.BankedScore != 0 {
		t.Fatalf("player = %+v, want both 0 after snake eyes", player)
	}
}

func TestPlayTurn_ExactlyOneHundredBusts(t *testing.T) {
	player := &PlayerState{Score: 94, BankedScore: 94}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 3, B: 3}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 100}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if player.Score != 0 || player.BankedScore != 0 {
		t.Fatalf("player = %+v, want both 0 at exactly 100", player)
	}
}

func TestPlayTurn_OverOneHundredBanksAndEnds(t *testing.T) {
	player := &PlayerState{Score: 95}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 5, B: 4}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 100}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if player.Score != 104 || player.BankedScore != 104 {
		t.Fatalf("player = %+v, want score and banked score both 104", player)
	}
}

func TestPlayTurn_HoldBanksCurrentScore(t *testing.T) {
	player := &PlayerState{Score: 20}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 2, B: 3}}}

	if err := PlayTurn(player, []uint32{0}, 0, &holdAfterN{n: 1}, roller, &history); err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if player.Score != 25 || player.BankedScore != 25 {
		t.Fatalf("player = %+v, want both 25 after a single non-double roll then hold", player)
	}
}

type erroringStrategy struct{}

func (erroringStrategy) ShouldRoll(GameState) (Decision, error) {
	return Hold, errFakeStrategy
}

var errFakeStrategy = errors.New("strategy exploded")

func TestPlayTurn_PropagatesStrategyError(t *testing.T) {
	player := &PlayerState{Score: 20}
	history := []TurnHistoryEntry{}
	roller := &FixedRoller{Rolls: []DiceRoll{{A: 2, B: 3}}}

	err := PlayTurn(player, []uint32{0}, 0, erroringStrategy{}, roller, &history)
	if err == nil {
		t.Fatal("expected an error from the strategy to propagate")
	}
}
