package model

import "time"

// Simulation status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Bot represents an uploaded strategy component.
type Bot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	WasmHash    string    `json:"-"`
	FilePath    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Simulation represents a queued or completed tournament.
type Simulation struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	NumGames       int        `json:"num_games"`
	GamesCompleted int        `json:"games_completed"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// SimulationParticipant holds one seat's aggregated outcome for a simulation.
type SimulationParticipant struct {
	SimulationID    string `json:"-"`
	BotID           string `json:"bot_id"`
	BotName         string `json:"bot_name,omitempty"`
	SeatIndex       int    `json:"seat_index"`
	GamesWon        int    `json:"games_won"`
	TotalMoney      int64  `json:"total_money"`
	PeakMemoryBytes uint64 `json:"peak_memory_bytes"`
	Disqualified    bool   `json:"disqualified"`
}

// AverageMoneyPerGame returns the participant's mean payment across num_games.
func (p SimulationParticipant) AverageMoneyPerGame(numGames int) float64 {
	if numGames == 0 {
		return 0
	}
	return float64(p.TotalMoney) / float64(numGames)
}
