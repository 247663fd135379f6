package pigpen

import "math/rand"

// RandomRoller rolls two independent uniform 1..=6 dice using math/rand.
// Not seeded: dice outcomes are not guaranteed to be bit-reproducible
// across hosts.
type RandomRoller struct{}

// Roll returns a fresh pair of dice.
func (RandomRoller) Roll() DiceRoll {
	return DiceRoll{
		A: uint32(rand.Intn(6)) + 1,
		B: uint32(rand.Intn(6)) + 1,
	}
}

// FixedRoller replays a predetermined sequence of rolls, looping back to the
// start if exhausted. Used by tests to drive turn/game scenarios
// deterministically.
type FixedRoller struct {
	Rolls []DiceRoll
	idx   int
}

// Roll returns the next roll in the fixed sequence.
func (f *FixedRoller) Roll() DiceRoll {
	if len(f.Rolls) == 0 {
		return DiceRoll{A: 1, B: 2}
	}
	r := f.Rolls[f.idx%len(f.Rolls)]
	f.idx++
	return r
}
