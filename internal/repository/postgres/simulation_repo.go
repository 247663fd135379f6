package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aiguy110/pig-pen-harness/internal/model"
)

// SimulationRepo handles simulation (tournament) and participant database operations.
type SimulationRepo struct {
	db *sql.DB
}

// NewSimulationRepo creates a SimulationRepo.
func NewSimulationRepo(db *sql.DB) *SimulationRepo {
	return &SimulationRepo{db: db}
}

// Create inserts a pending simulation and one participant row per bot, in
// submission (seat) order.
func (r *SimulationRepo) Create(ctx context.Context, id string, numGames int, botIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create simulation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO simulations (id, status, num_games) VALUES ($1, $2, $3)`,
		id, model.StatusPending, numGames,
	)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}

	for seatIndex, botID := range botIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO simulation_participants (simulation_id, bot_id, seat_index) VALUES ($1, $2, $3)`,
			id, botID, seatIndex,
		)
		if err != nil {
			return fmt.Errorf("insert participant %d: %w", seatIndex, err)
		}
	}

	return tx.Commit()
}

// FindByID looks up a simulation by its UUID.
func (r *SimulationRepo) FindByID(ctx context.Context, id string) (*model.Simulation, error) {
	var s model.Simulation
	var startedAt, completedAt sql.NullTime
	var errMsg sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status, num_games, games_completed, created_at, started_at, completed_at, error_message
		 FROM simulations WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Status, &s.NumGames, &s.GamesCompleted, &s.CreatedAt, &startedAt, &completedAt, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find simulation by id: %w", err)
	}
	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	s.ErrorMessage = errMsg.String
	return &s, nil
}

// Participants returns every seat's aggregated result for a simulation, in
// seat order, joined with the bot's display name.
func (r *SimulationRepo) Participants(ctx context.Context, simulationID string) ([]model.SimulationParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sp.bot_id, b.name, sp.seat_index, sp.games_won, sp.total_money, sp.peak_memory_bytes, sp.disqualified
		 FROM simulation_participants sp
		 JOIN bots b ON b.id = sp.bot_id
		 WHERE sp.simulation_id = $1
		 ORDER BY sp.seat_index`,
		simulationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []model.SimulationParticipant
	for rows.Next() {
		var p model.SimulationParticipant
		p.SimulationID = simulationID
		if err := rows.Scan(&p.BotID, &p.BotName, &p.SeatIndex, &p.GamesWon, &p.TotalMoney, &p.PeakMemoryBytes, &p.Disqualified); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetRunning marks a simulation as running and records its start time.
func (r *SimulationRepo) SetRunning(ctx context.Context, id string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE simulations SET status = $1, started_at = $2 WHERE id = $3`,
		model.StatusRunning, startedAt, id,
	)
	if err != nil {
		return fmt.Errorf("set simulation running: %w", err)
	}
	return nil
}

// SetGamesCompleted updates the games_completed progress counter.
func (r *SimulationRepo) SetGamesCompleted(ctx context.Context, id string, gamesCompleted int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE simulations SET games_completed = $1 WHERE id = $2`,
		gamesCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("set games completed: %w", err)
	}
	return nil
}

// SetCompleted marks a simulation completed and persists final per-seat results.
func (r *SimulationRepo) SetCompleted(ctx context.Context, id string, completedAt time.Time, results []model.SimulationParticipant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set completed: %w", err)
	}
	defer tx.Rollback()

	for _, p := range results {
		_, err = tx.ExecContext(ctx,
			`UPDATE simulation_participants
			 SET games_won = $1, total_money = $2, peak_memory_bytes = $3, disqualified = $4
			 WHERE simulation_id = $5 AND bot_id = $6 AND seat_index = $7`,
			p.GamesWon, p.TotalMoney, p.PeakMemoryBytes, p.Disqualified, id, p.BotID, p.SeatIndex,
		)
		if err != nil {
			return fmt.Errorf("update participant seat %d: %w", p.SeatIndex, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE simulations SET status = $1, completed_at = $2 WHERE id = $3`,
		model.StatusCompleted, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("mark simulation completed: %w", err)
	}

	return tx.Commit()
}

// SetFailed marks a simulation failed and records the error string.
func (r *SimulationRepo) SetFailed(ctx context.Context, id string, completedAt time.Time, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE simulations SET status = $1, completed_at = $2, error_message = $3 WHERE id = $4`,
		model.StatusFailed, completedAt, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("set simulation failed: %w", err)
	}
	return nil
}
