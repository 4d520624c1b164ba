package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/terrena-pm/terrena/internal/permits"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermitInstantiate copies a validated permit template onto a project.
	TaskPermitInstantiate = "permit:instantiate"
)

// PermitInstantiatePayload identifies the template/project pair to expand.
type PermitInstantiatePayload struct {
	TemplateID  string `json:"templateId"`
	ProjectID   string `json:"projectId"`
	RequestedBy string `json:"requestedBy"`
}

// NewPermitInstantiateTask constructs an Asynq task.
func NewPermitInstantiateTask(payload PermitInstantiatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermitInstantiate, data), nil
}

// PermitInstantiateHandler processes TaskPermitInstantiate tasks.
type PermitInstantiateHandler struct {
	service *permits.Service
	logger  *slog.Logger
}

// NewPermitInstantiateHandler constructs the handler.
func NewPermitInstantiateHandler(service *permits.Service, logger *slog.Logger) *PermitInstantiateHandler {
	return &PermitInstantiateHandler{service: service, logger: logger}
}

// Handle expands the template into project permit items. A malformed
// payload skips retry; the template was validated at enqueue time, so a
// failure here is infrastructure and retried by Asynq.
func (h *PermitInstantiateHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PermitInstantiatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	items, err := h.service.Instantiate(ctx, payload.TemplateID, payload.ProjectID)
	if err != nil {
		h.logger.Error("instantiate permit template",
			slog.String("template", payload.TemplateID),
			slog.String("project", payload.ProjectID),
			slog.Any("error", err))
		return err
	}
	h.logger.Info("permit template instantiated",
		slog.String("template", payload.TemplateID),
		slog.String("project", payload.ProjectID),
		slog.Int("items", len(items)),
		slog.String("requested_by", payload.RequestedBy))
	return nil
}
