package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aiguy110/pig-pen-harness/internal/model"
	"github.com/aiguy110/pig-pen-harness/internal/pigpen"
	"github.com/aiguy110/pig-pen-harness/internal/repository"
	"github.com/aiguy110/pig-pen-harness/internal/sandbox"
	"github.com/aiguy110/pig-pen-harness/internal/simqueue"
	"github.com/aiguy110/pig-pen-harness/internal/tournament"
)

// minNumGames and maxNumGames bound a submitted simulation's game count.
const (
	minNumGames = 1
	maxNumGames = 1_000_000
)

// SimulationHandler serves the simulation submit/status/results routes and
// owns the glue between the REST surface, the single-worker queue, the
// sandboxed tournament runner, and persistence.
type SimulationHandler struct {
	simulations repository.SimulationRepository
	bots        repository.BotRepository
	progress    repository.ProgressCache
	queue       *simqueue.Manager
	sandbox     *sandbox.Host
}

// NewSimulationHandler wires a SimulationHandler against its dependencies.
func NewSimulationHandler(
	simulations repository.SimulationRepository,
	bots repository.BotRepository,
	progress repository.ProgressCache,
	queue *simqueue.Manager,
	host *sandbox.Host,
) *SimulationHandler {
	return &SimulationHandler{
		simulations: simulations,
		bots:        bots,
		progress:    progress,
		queue:       queue,
		sandbox:     host,
	}
}

type createSimulationRequest struct {
	BotIDs   []string `json:"bot_ids"`
	NumGames int      `json:"num_games"`
}

// Create handles POST /simulations: validates the request, records a
// pending simulation and its seats, and enqueues the tournament on the
// single-worker queue. The HTTP response returns before the tournament
// necessarily starts running.
func (h *SimulationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.BotIDs) == 0 {
		writeError(w, http.StatusBadRequest, "bot_ids must not be empty")
		return
	}
	if req.NumGames < minNumGames || req.NumGames > maxNumGames {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("num_games must be between %d and %d", minNumGames, maxNumGames))
		return
	}

	ctx := r.Context()
	for _, botID := range req.BotIDs {
		bot, err := h.bots.FindByID(ctx, botID)
		if err != nil {
			log.Error().Err(err).Msg("lookup bot failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if bot == nil {
			writeError(w, http.StatusBadRequest, "unknown bot: "+botID)
			return
		}
	}

	id := uuid.New().String()
	if err := h.simulations.Create(ctx, id, req.NumGames, req.BotIDs); err != nil {
		log.Error().Err(err).Msg("create simulation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.queue.Queue(simqueue.Job{
		ID:      id,
		Execute: func(jobCtx context.Context) { h.run(jobCtx, id, req.BotIDs, req.NumGames) },
	})

	writeJSON(w, http.StatusCreated, map[string]string{
		"simulation_id": id,
		"message":       "simulation queued",
	})
}

// run executes one queued tournament to completion. It is invoked on the
// simqueue worker goroutine, never concurrently with another simulation.
func (h *SimulationHandler) run(ctx context.Context, simulationID string, botIDs []string, numGames int) {
	logCtx := log.With().Str("simulationId", simulationID).Logger()

	if err := h.simulations.SetRunning(ctx, simulationID, time.Now()); err != nil {
		logCtx.Warn().Err(err).Msg("failed to mark simulation running")
	}

	sources := make([]tournament.BotSource, len(botIDs))
	for i, botID := range botIDs {
		bot, err := h.bots.FindByID(ctx, botID)
		if err != nil {
			h.fail(ctx, logCtx, simulationID, fmt.Errorf("load bot %s: %w", botID, err))
			return
		}
		if bot == nil {
			h.fail(ctx, logCtx, simulationID, fmt.Errorf("bot %s no longer exists", botID))
			return
		}
		wasmBytes, err := os.ReadFile(bot.FilePath)
		if err != nil {
			h.fail(ctx, logCtx, simulationID, fmt.Errorf("read bot file %s: %w", bot.FilePath, err))
			return
		}
		sources[i] = tournament.BotSource{BotID: botID, WasmBytes: wasmBytes}
	}

	participants, err := tournament.Instantiate(h.sandbox, sources)
	if err != nil {
		h.fail(ctx, logCtx, simulationID, fmt.Errorf("instantiate participants: %w", err))
		return
	}

	onProgress := func(gamesCompleted int) {
		if err := h.progress.SetGamesCompleted(ctx, simulationID, gamesCompleted); err != nil {
			logCtx.Warn().Err(err).Msg("failed to update progress cache")
		}
		if err := h.simulations.SetGamesCompleted(ctx, simulationID, gamesCompleted); err != nil {
			logCtx.Warn().Err(err).Msg("failed to persist progress checkpoint")
		}
	}

	results, err := tournament.Run(participants, numGames, pigpen.RandomRoller{}, onProgress)
	if err != nil {
		h.fail(ctx, logCtx, simulationID, fmt.Errorf("tournament run: %w", err))
		return
	}

	participantRows := make([]model.SimulationParticipant, len(results))
	for i, r := range results {
		participantRows[i] = model.SimulationParticipant{
			SimulationID:    simulationID,
			BotID:           r.BotID,
			SeatIndex:       r.SeatIndex,
			GamesWon:        r.GamesWon,
			TotalMoney:      r.NetMoney,
			PeakMemoryBytes: r.PeakMemoryBytes,
			Disqualified:    r.Disqualified,
		}
	}

	if err := h.simulations.SetCompleted(ctx, simulationID, time.Now(), participantRows); err != nil {
		logCtx.Error().Err(err).Msg("failed to persist completed simulation")
	}
	if err := h.progress.Clear(ctx, simulationID); err != nil {
		logCtx.Warn().Err(err).Msg("failed to clear progress cache")
	}
}

// fail marks a simulation failed and logs the cause. Called from the worker
// goroutine, so there is no HTTP response to write -- the failure surfaces
// later through Status.
func (h *SimulationHandler) fail(ctx context.Context, logCtx zerolog.Logger, simulationID string, err error) {
	logCtx.Error().Err(err).Msg("simulation failed")
	if setErr := h.simulations.SetFailed(ctx, simulationID, time.Now(), err.Error()); setErr != nil {
		logCtx.Error().Err(setErr).Msg("failed to persist simulation failure")
	}
	if clearErr := h.progress.Clear(ctx, simulationID); clearErr != nil {
		logCtx.Warn().Err(clearErr).Msg("failed to clear progress cache")
	}
}

// Status handles GET /simulations/{id}.
func (h *SimulationHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sim, err := h.simulations.FindByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("lookup simulation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sim == nil {
		writeError(w, http.StatusNotFound, "unknown simulation: "+id)
		return
	}

	if sim.Status == model.StatusRunning {
		if cached, ok, err := h.progress.GamesCompleted(r.Context(), id); err == nil && ok {
			sim.GamesCompleted = cached
		}
	}

	writeJSON(w, http.StatusOK, sim)
}

// Results handles GET /simulations/{id}/results.
func (h *SimulationHandler) Results(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	sim, err := h.simulations.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("lookup simulation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sim == nil {
		writeError(w, http.StatusNotFound, "unknown simulation: "+id)
		return
	}

	participants, err := h.simulations.Participants(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("lookup participants failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	type participantView struct {
		model.SimulationParticipant
		AverageMoneyPerGame float64 `json:"average_money_per_game"`
	}
	views := make([]participantView, len(participants))
	for i, p := range participants {
		views[i] = participantView{
			SimulationParticipant: p,
			AverageMoneyPerGame:   p.AverageMoneyPerGame(sim.NumGames),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"simulation_id": sim.ID,
		"status":        sim.Status,
		"participants":  views,
	})
}
