package projects

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/terrena-pm/terrena/internal/platform/httpx"
	"github.com/terrena-pm/terrena/internal/shared"
)

// Handler wires HTTP endpoints for projects. Authentication and the access
// decision run as middleware installed by the router; handlers only carry
// resource logic.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers project routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}/status", h.handleSetStatus)
}

type createRequest struct {
	Name        string              `json:"name" validate:"required,min=2"`
	Assignments map[string][]string `json:"assignments"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if scope == nil || scope.Tenant == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant resolved")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	project, err := h.service.Create(r.Context(), scope.Tenant, req.Name, req.Assignments)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if scope == nil || scope.Tenant == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant resolved")
		return
	}
	list, err := h.service.List(r.Context(), scope.Tenant)
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetPublishStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		httpx.RespondError(w, mapNotFound(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return httpx.ErrNotFound
	}
	return err
}
