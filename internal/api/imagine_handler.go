package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/imagine-api/internal/api/shared"
	"github.com/phrazzld/imagine-api/internal/domain"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
	"github.com/phrazzld/imagine-api/internal/task"
)

// ImagineHandler serves the prompt submission endpoints. Both endpoints block
// until the job finishes; a client that disconnects early leaves the job
// running, and its outcome stays available from the job history.
type ImagineHandler struct {
	queue         task.Submitter
	defaultPrompt string
	logger        *slog.Logger
}

// NewImagineHandler creates an ImagineHandler.
func NewImagineHandler(queue task.Submitter, defaultPrompt string, logger *slog.Logger) *ImagineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImagineHandler{
		queue:         queue,
		defaultPrompt: defaultPrompt,
		logger:        logger.With("component", "imagine_handler"),
	}
}

// Imagine handles POST /imagine with a JSON body {"prompt": "..."}.
// An empty or missing body selects the default prompt.
func (h *ImagineHandler) Imagine(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ImagineRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		log.Debug("invalid request format", "error", err)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	h.run(w, r, req.Prompt)
}

// Generate handles GET /generate?prompt=...
func (h *ImagineHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, r.URL.Query().Get("prompt"))
}

func (h *ImagineHandler) run(w http.ResponseWriter, r *http.Request, prompt string) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = h.defaultPrompt
	}
	if len([]rune(prompt)) > domain.MaxPromptLength {
		handleAPIError(w, r, domain.ErrPromptTooLong)
		return
	}

	future := h.queue.Submit(ctx, prompt)
	log = log.With("job_id", future.JobID)
	log.Info("prompt queued", "position", future.Position)

	result, err := future.Wait(ctx)
	if err != nil {
		log.Warn("client went away before the job finished", "error", err)
		return
	}

	status, body := resultToResponse(future.JobID, result)
	if status != http.StatusOK {
		log.Warn("generation failed", "attempts", result.Attempts)
	}
	shared.RespondWithJSON(w, r, status, body)
}
