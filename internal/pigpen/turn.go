package pigpen

// PlayTurn runs one seat's turn to completion, mutating player and
// appending to history in place. allBankedScores is a snapshot of every
// seat's banked score at the start of the turn, in seat order.
//
// Resolution order on each roll: snake eyes bust, sum-of-seven reset,
// doubles (forced continuation, triple-doubles bust), accumulation,
// exactly-100 bust, over-100 bank-and-end.
func PlayTurn(
	player *PlayerState,
	allBankedScores []uint32,
	seatIndex uint32,
	strategy Strategy,
	roller Roller,
	history *[]TurnHistoryEntry,
) error {
	player.TurnStartScore = player.Score
	player.DoublesCount = 0
	mustRoll := true

	for {
		if !mustRoll {
			state := GameState{
				CurrentSeatIndex:   seatIndex,
				CurrentBankedScore: player.BankedScore,
				CurrentTotalScore:  player.Score,
				AllBankedScores:    append([]uint32(nil), allBankedScores...),
				TurnHistory:        append([]TurnHistoryEntry(nil), (*history)...),
			}

			decision, err := strategy.ShouldRoll(state)
			if err != nil {
				return err
			}
			if decision == Hold {
				player.BankedScore = player.Score
				return nil
			}
		}

		roll := roller.Roll()
		*history = append(*history, TurnHistoryEntry{SeatIndex: seatIndex, Roll: roll})

		switch {
		case roll.SnakeEyes():
			player.Score = 0
			player.BankedScore = 0
			player.DoublesCount = 0
			return nil

		case roll.Sum() == 7:
			player.Score = player.TurnStartScore
			player.DoublesCount = 0
			return nil

		case roll.Doubles():
			player.DoublesCount++
			if player.DoublesCount >= 3 {
				player.Score = 0
				player.BankedScore = 0
				player.DoublesCount = 0
				return nil
			}
			mustRoll = true

		default:
			player.DoublesCount = 0
			mustRoll = false
		}

		player.Score += roll.Sum()

		switch {
		case player.Score == 100:
			player.Score = 0
			player.BankedScore = 0
			player.DoublesCount = 0
			return nil
		case player.Score > 100:
			player.BankedScore = player.Score
			return nil
		}
	}
}
