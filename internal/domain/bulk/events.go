package bulk

import "github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"

const EventTypeImportCompleted = "ImportCompleted"

// ImportCompletedEvent is raised when an import batch commits
type ImportCompletedEvent struct {
	shared.BaseDomainEvent
	Profile string       `json:"profile"`
	Counts  ImportCounts `json:"counts"`
}

// EventType returns the event type name
func (e *ImportCompletedEvent) EventType() string {
	return EventTypeImportCompleted
}

// NewImportCompletedEvent creates an ImportCompletedEvent
func NewImportCompletedEvent(h *ImportHistory) *ImportCompletedEvent {
	return &ImportCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeImportCompleted, "ImportHistory", h.ID, h.TenantID),
		Profile:         h.Profile,
		Counts:          h.Counts,
	}
}
