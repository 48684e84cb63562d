package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fubuki/internal/models"
	"github.com/starford/fubuki/internal/queue"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/tracker"
)

// StatusResponse is the tracker state plus readiness.
type StatusResponse struct {
	tracker.Status
	Ready    bool          `json:"ready" example:"true"`
	Settings settings.View `json:"settings"`
}

// QueueResponse lists pending updates and the one being sent.
type QueueResponse struct {
	Items    []queue.Item  `json:"items" validate:"required"`
	InFlight *models.Entry `json:"inFlight,omitempty"`
}

// HistoryResponse wraps update history, newest first.
type HistoryResponse struct {
	Records []store.UpdateRecord `json:"records" validate:"required"`
}

// SettingsRequest changes runtime settings. Omitted fields are left as is.
type SettingsRequest struct {
	UpdateDelaySeconds *int    `json:"updateDelaySeconds,omitempty" example:"5"`
	Token              *string `json:"token,omitempty"`
}

// Validate checks the request values.
func (r *SettingsRequest) Validate() error {
	if r.UpdateDelaySeconds == nil && r.Token == nil {
		return validation.NewError("validation_empty_settings", "at least one setting is required")
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.UpdateDelaySeconds, validation.Min(0), validation.Max(3600)),
	)
}
