package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aiguy110/pig-pen-harness/internal/model"
	"github.com/aiguy110/pig-pen-harness/internal/repository"
	"github.com/aiguy110/pig-pen-harness/internal/sandbox"
)

// maxUploadBytes bounds a single strategy upload well above any reasonable
// wasm module size while still ruling out an accidental multi-gigabyte post.
const maxUploadBytes = 32 * 1024 * 1024

// BotHandler serves the bot upload and listing routes.
type BotHandler struct {
	bots    repository.BotRepository
	sandbox *sandbox.Host
	botsDir string
}

// NewBotHandler wires a BotHandler against its storage and sandbox
// dependencies. botsDir is where validated wasm components are written,
// one file per bot keyed by its generated ID.
func NewBotHandler(bots repository.BotRepository, host *sandbox.Host, botsDir string) *BotHandler {
	return &BotHandler{bots: bots, sandbox: host, botsDir: botsDir}
}

// Create handles POST /bots: a multipart upload of name, optional
// description, and a wasm file. The component is hashed for deduplication,
// validated in the sandbox before it is ever persisted, and rejected with
// 422 if it does not satisfy the strategy ABI.
func (h *BotHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	description := r.FormValue("description")

	file, _, err := r.FormFile("wasm")
	if err != nil {
		writeError(w, http.StatusBadRequest, "wasm file is required: "+err.Error())
		return
	}
	defer file.Close()

	wasmBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read wasm file: "+err.Error())
		return
	}

	sum := sha256.Sum256(wasmBytes)
	hash := hex.EncodeToString(sum[:])

	ctx := r.Context()
	if existing, err := h.bots.FindByHash(ctx, hash); err != nil {
		log.Error().Err(err).Msg("lookup bot by hash failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	} else if existing != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"id":      existing.ID,
			"message": "bot with this content already exists",
		})
		return
	}

	if err := h.sandbox.Validate(wasmBytes); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "strategy failed sandbox validation: "+err.Error())
		return
	}

	id := uuid.New().String()
	if err := os.MkdirAll(h.botsDir, 0o755); err != nil {
		log.Error().Err(err).Msg("create bots directory failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	filePath := filepath.Join(h.botsDir, id+".wasm")
	if err := os.WriteFile(filePath, wasmBytes, 0o644); err != nil {
		log.Error().Err(err).Msg("write bot file failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	bot, err := h.bots.Create(ctx, id, name, description, hash, filePath)
	if err != nil {
		log.Error().Err(err).Msg("create bot record failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      bot.ID,
		"message": "bot uploaded",
	})
}

// List handles GET /bots.
func (h *BotHandler) List(w http.ResponseWriter, r *http.Request) {
	bots, err := h.bots.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list bots failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bots == nil {
		bots = []model.Bot{}
	}
	writeJSON(w, http.StatusOK, bots)
}
