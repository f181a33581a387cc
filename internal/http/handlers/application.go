package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hiretrack/internal/app"
	"hiretrack/internal/common"
	"hiretrack/internal/http/middleware"
	"hiretrack/internal/http/response"
)

// NotificationWarningHeader is set when a change committed but some of its
// notifications could not be queued.
const NotificationWarningHeader = "X-Notification-Warning"

type ApplicationHandler struct {
	applications *app.ApplicationService
	limiter      middleware.Limiter
}

func NewApplicationHandler(applications *app.ApplicationService, limiter middleware.Limiter) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, limiter: limiter}
}

type applyRequest struct {
	JobID string `json:"job_id"`
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.JobID) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"job_id": "job_id is required"}))
		return
	}
	jobID, err := common.ParseUUID(req.JobID)
	if err != nil {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"job_id": "invalid uuid"}))
		return
	}
	if h.limiter != nil {
		key := "apply:" + jobID.String() + ":" + candidateID.String()
		if !h.limiter.Allow(key, 3, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "apply rate limit exceeded", nil))
			return
		}
	}
	result, err := h.applications.Submit(r.Context(), jobID, candidateID)
	if err != nil {
		response.Error(w, err)
		return
	}
	warnDispatch(w, r, result)
	response.JSON(w, http.StatusCreated, result.Application)
}

type changeStageRequest struct {
	Stage string `json:"stage"`
}

func (h *ApplicationHandler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	changedBy, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	applicationID, err := idFromPath(r, 1)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req changeStageRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.Stage) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"stage": "stage is required"}))
		return
	}
	result, err := h.applications.ChangeStage(r.Context(), applicationID, req.Stage, changedBy)
	if err != nil {
		response.Error(w, err)
		return
	}
	warnDispatch(w, r, result)
	response.JSON(w, http.StatusOK, result.Application)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	applicationID, viewer, err := readTarget(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	found, err := h.applications.Get(r.Context(), applicationID, viewer)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, found)
}

func (h *ApplicationHandler) History(w http.ResponseWriter, r *http.Request) {
	applicationID, viewer, err := readTarget(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	entries, err := h.applications.History(r.Context(), applicationID, viewer)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

func (h *ApplicationHandler) NextStages(w http.ResponseWriter, r *http.Request) {
	applicationID, viewer, err := readTarget(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	opts, err := h.applications.NextStages(r.Context(), applicationID, viewer)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, opts)
}

func warnDispatch(w http.ResponseWriter, r *http.Request, result *app.Result) {
	if result.DispatchErr == nil {
		return
	}
	zerolog.Ctx(r.Context()).Warn().Err(result.DispatchErr).Str("application_id", result.Application.ID.String()).Msg("committed without queuing every notification")
	w.Header().Set(NotificationWarningHeader, "notifications could not be queued")
}

// readTarget returns the application id from the path and the caller reading it.
func readTarget(r *http.Request) (common.UUID, app.Viewer, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return "", app.Viewer{}, errUnauthorized()
	}
	id, err := idFromPath(r, 1)
	if err != nil {
		return "", app.Viewer{}, err
	}
	return id, app.Viewer{UserID: p.UserID, Role: p.Role}, nil
}
