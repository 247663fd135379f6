package handler

import (
	"context"
	"sync"
	"time"

	"github.com/aiguy110/pig-pen-harness/internal/model"
)

// fakeBotRepo is an in-memory repository.BotRepository for handler tests.
type fakeBotRepo struct {
	mu   sync.Mutex
	bots map[string]model.Bot
}

func newFakeBotRepo() *fakeBotRepo {
	return &fakeBotRepo{bots: map[string]model.Bot{}}
}

func (r *fakeBotRepo) FindByHash(ctx context.Context, hash string) (*model.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bots {
		if b.WasmHash == hash {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (r *fakeBotRepo) FindByID(ctx context.Context, id string) (*model.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bots[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *fakeBotRepo) Create(ctx context.Context, id, name, description, hash, filePath string) (*model.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := model.Bot{ID: id, Name: name, Description: description, WasmHash: hash, FilePath: filePath, CreatedAt: time.Now()}
	r.bots[id] = b
	return &b, nil
}

func (r *fakeBotRepo) List(ctx context.Context) ([]model.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Bot, 0, len(r.bots))
	for _, b := range r.bots {
		out = append(out, b)
	}
	return out, nil
}

// fakeSimRepo is an in-memory repository.SimulationRepository for handler tests.
type fakeSimRepo struct {
	mu           sync.Mutex
	sims         map[string]model.Simulation
	participants map[string][]model.SimulationParticipant
}

func newFakeSimRepo() *fakeSimRepo {
	return &fakeSimRepo{
		sims:         map[string]model.Simulation{},
		participants: map[string][]model.SimulationParticipant{},
	}
}

func (r *fakeSimRepo) Create(ctx context.Context, id string, numGames int, botIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sims[id] = model.Simulation{ID: id, Status: model.StatusPending, NumGames: numGames, CreatedAt: time.Now()}
	participants := make([]model.SimulationParticipant, len(botIDs))
	for i, botID := range botIDs {
		participants[i] = model.SimulationParticipant{SimulationID: id, BotID: botID, SeatIndex: i}
	}
	r.participants[id] = participants
	return nil
}

func (r *fakeSimRepo) FindByID(ctx context.Context, id string) (*model.Simulation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sims[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *fakeSimRepo) Participants(ctx context.Context, simulationID string) ([]model.SimulationParticipant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SimulationParticipant(nil), r.participants[simulationID]...), nil
}

func (r *fakeSimRepo) SetRunning(ctx context.Context, id string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sims[id]
	s.Status = model.StatusRunning
	s.StartedAt = &startedAt
	r.sims[id] = s
	return nil
}

func (r *fakeSimRepo) SetGamesCompleted(ctx context.Context, id string, gamesCompleted int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sims[id]
	s.GamesCompleted = gamesCompleted
	r.sims[id] = s
	return nil
}

func (r *fakeSimRepo) SetCompleted(ctx context.Context, id string, completedAt time.Time, results []model.SimulationParticipant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sims[id]
	s.Status = model.StatusCompleted
	s.CompletedAt = &completedAt
	r.sims[id] = s
	r.participants[id] = results
	return nil
}

func (r *fakeSimRepo) SetFailed(ctx context.Context, id string, completedAt time.Time, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sims[id]
	s.Status = model.StatusFailed
	s.CompletedAt = &completedAt
	s.ErrorMessage = errMsg
	r.sims[id] = s
	return nil
}

// fakeProgressCache is an in-memory repository.ProgressCache for handler tests.
type fakeProgressCache struct {
	mu     sync.Mutex
	values map[string]int
}

func newFakeProgressCache() *fakeProgressCache {
	return &fakeProgressCache{values: map[string]int{}}
}

func (c *fakeProgressCache) SetGamesCompleted(ctx context.Context, simulationID string, gamesCompleted int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[simulationID] = gamesCompleted
	return nil
}

func (c *fakeProgressCache) GamesCompleted(ctx context.Context, simulationID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[simulationID]
	return v, ok, nil
}

func (c *fakeProgressCache) Clear(ctx context.Context, simulationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, simulationID)
	return nil
}
