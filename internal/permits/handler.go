package permits

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/terrena-pm/terrena/internal/platform/httpx"
	"github.com/terrena-pm/terrena/internal/shared"
)

// Enqueuer submits instantiation work to the background queue.
type Enqueuer interface {
	EnqueuePermitInstantiate(ctx context.Context, templateID, projectID, requestedBy string) error
}

// Handler wires HTTP endpoints for permit templates and instantiated items.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	enqueuer  Enqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		enqueuer:  enqueuer,
		validator: validator.New(),
	}
}

// MountTemplateRoutes registers template CRUD routes.
func (h *Handler) MountTemplateRoutes(r chi.Router) {
	r.Post("/", h.handleCreateTemplate)
	r.Get("/{templateId}", h.handleGetTemplate)
}

// MountProjectRoutes registers the project-scoped permit routes. The GET is
// the read carve-out route: the decision engine grants it to assigned
// actors and trusted reviewers regardless of publish state.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Get("/", h.handleListProjectItems)
	r.Post("/", h.handleInstantiate)
}

type createTemplateRequest struct {
	Name  string         `json:"name" validate:"required,min=2"`
	Items []TemplateItem `json:"items" validate:"required,min=1"`
}

type validationFailure struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues"`
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if scope == nil || scope.Tenant == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant resolved")
		return
	}
	var req createTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tpl, problems, err := h.service.CreateTemplate(r.Context(), scope.Tenant, req.Name, req.Items)
	if err != nil {
		h.logger.Error("create template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(problems) > 0 {
		httpx.JSON(w, http.StatusBadRequest, validationFailure{Error: "template_invalid", Issues: problems})
		return
	}
	httpx.JSON(w, http.StatusCreated, tpl)
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if scope == nil || scope.Tenant == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant resolved")
		return
	}
	tpl, err := h.service.GetTemplate(r.Context(), scope.Tenant, chi.URLParam(r, "templateId"))
	if err != nil {
		if NotFound(err) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tpl)
}

func (h *Handler) handleListProjectItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListProjectItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("list permit items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type instantiateRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
}

func (h *Handler) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	scope := shared.ScopeFromContext(r.Context())
	if scope == nil || scope.Tenant == "" {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "no tenant resolved")
		return
	}
	var req instantiateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// Instantiation is refused outright when the graph is malformed; the
	// client gets the complete issue list. The tenant scope also applies
	// here: another tenant's template reads as missing.
	_, problems, err := h.service.CheckTemplate(r.Context(), scope.Tenant, req.TemplateID)
	if err != nil {
		if NotFound(err) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	if len(problems) > 0 {
		httpx.JSON(w, http.StatusBadRequest, validationFailure{Error: "template_invalid", Issues: problems})
		return
	}

	projectID := chi.URLParam(r, "id")
	if err := h.enqueuer.EnqueuePermitInstantiate(r.Context(), req.TemplateID, projectID, scope.Actor.ID); err != nil {
		h.logger.Error("enqueue instantiate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"status":     "queued",
		"templateId": req.TemplateID,
		"projectId":  projectID,
	})
}
