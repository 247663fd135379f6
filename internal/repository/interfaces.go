package repository

import (
	"context"
	"time"

	"github.com/aiguy110/pig-pen-harness/internal/model"
)

// BotRepository defines storage operations for uploaded strategy components.
type BotRepository interface {
	// FindByHash returns the bot with the given content hash, or nil if none exists.
	FindByHash(ctx context.Context, hash string) (*model.Bot, error)
	FindByID(ctx context.Context, id string) (*model.Bot, error)
	Create(ctx context.Context, id, name, description, hash, filePath string) (*model.Bot, error)
	List(ctx context.Context) ([]model.Bot, error)
}

// SimulationRepository defines storage operations for tournaments and their
// per-seat results.
type SimulationRepository interface {
	Create(ctx context.Context, id string, numGames int, botIDs []string) error
	FindByID(ctx context.Context, id string) (*model.Simulation, error)
	Participants(ctx context.Context, simulationID string) ([]model.SimulationParticipant, error)

	SetRunning(ctx context.Context, id string, startedAt time.Time) error
	SetGamesCompleted(ctx context.Context, id string, gamesCompleted int) error
	SetCompleted(ctx context.Context, id string, completedAt time.Time, results []model.SimulationParticipant) error
	SetFailed(ctx context.Context, id string, completedAt time.Time, errMsg string) error
}

// ProgressCache defines a fast read-through accelerator for simulation
// progress, fronting SimulationRepository's slower relational writes.
type ProgressCache interface {
	SetGamesCompleted(ctx context.Context, simulationID string, gamesCompleted int) error
	GamesCompleted(ctx context.Context, simulationID string) (int, bool, error)
	Clear(ctx context.Context, simulationID string) error
}
