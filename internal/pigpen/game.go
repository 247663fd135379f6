package pigpen

import "math/rand"

// SeatResult is one seat's outcome from a single game.
type SeatResult struct {
	Won   bool
	Money int64
}

// PlaySeat is a strategy plus whether it has already been permanently
// disqualified from the tournament (and so must sit out this game).
type PlaySeat struct {
	Strategy     Strategy
	Disqualified bool
}

// PlayGame runs one complete game among the given seats and returns each
// seat's result. Disqualified seats are skipped entirely: they neither roll
// nor factor into endgame termination, and their result is always a zero
// entry.
//
// A roster of more than one seat that has been whittled down to a single
// active seat by disqualification ends immediately with that seat as
// leader, without playing a turn. A roster consisting of exactly one seat
// from the start is not a disqualification remnant and plays normally
// until that seat crosses 100.
func PlayGame(seats []PlaySeat, roller Roller) ([]SeatResult, error) {
	numSeats := len(seats)
	players := make([]PlayerState, numSeats)
	history := make([]TurnHistoryEntry, 0)

	active := make([]bool, numSeats)
	activeCount := 0
	soleActiveSeat := 0
	for i, s := range seats {
		active[i] = !s.Disqualified
		if active[i] {
			activeCount++
			soleActiveSeat = i
		}
	}

	if activeCount == 0 {
		return make([]SeatResult, numSeats), nil
	}

	if numSeats > 1 && activeCount == 1 {
		results := make([]SeatResult, numSeats)
		results[soleActiveSeat].Won = true
		return results, nil
	}

	order := rand.Perm(numSeats)

	currentIdx := 0
	for !active[order[currentIdx]] {
		currentIdx = (currentIdx + 1) % numSeats
	}

	leaderScore := uint32(0)
	leaderSeat := order[currentIdx]
	endgameStarted := false
	hadFinalTurn := make([]bool, numSeats)

	for {
		seat := order[currentIdx]
		if !active[seat] {
			currentIdx = (currentIdx + 1) % numSeats
			continue
		}

		allBanked := make([]uint32, numSeats)
		for i := range players {
			allBanked[i] = players[i].BankedScore
		}

		if err := PlayTurn(&players[seat], allBanked, uint32(seat), seats[seat].Strategy, roller, &history); err != nil {
			return nil, err
		}

		if !endgameStarted && players[seat].Score > 100 {
			endgameStarted = true
			leaderScore = players[seat].Score
			leaderSeat = seat
			for i := range hadFinalTurn {
				hadFinalTurn[i] = false
			}
			hadFinalTurn[seat] = true
		} else if endgameStarted {
			hadFinalTurn[seat] = true

			if players[seat].Score > leaderScore {
				leaderScore = players[seat].Score
				leaderSeat = seat
				for i := range hadFinalTurn {
					hadFinalTurn[i] = false
				}
				hadFinalTurn[seat] = true
			}
		}

		if endgameStarted {
			allHadTurn := true
			for i := range hadFinalTurn {
				if active[i] && !hadFinalTurn[i] {
					allHadTurn = false
					break
				}
			}
			if allHadTurn {
				break
			}
		}

		currentIdx = (currentIdx + 1) % numSeats
	}

	winnerSeat := leaderSeat
	winnerScore := players[winnerSeat].Score

	results := make([]SeatResult, numSeats)
	results[winnerSeat].Won = true

	for j := range players {
		if j == winnerSeat || !active[j] {
			continue
		}
		payment := payoff(winnerScore, players[j].Score)
		results[winnerSeat].Money += payment
		results[j].Money -= payment
	}

	return results, nil
}

// payoff computes what the winner collects from a single loser: double the
// usual difference when the loser busted to zero.
func payoff(winnerScore, loserScore uint32) int64 {
	diff := int64(winnerScore) - int64(loserScore)
	if loserScore == 0 {
		return diff * 2
	}
	return diff
}
