package trips

import (
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

type CreateTripInput struct {
	Name        string
	Description string
}

// SummaryPatch distinguishes omitted fields from explicit nulls. Omitted or empty fields leave
// the stored value unchanged; null is rejected.
type SummaryPatch struct {
	Name        nullable.Nullable[string] `json:"name,omitempty"`
	Description nullable.Nullable[string] `json:"description,omitempty"`
}

// CommitResult is the state of the trip after photos were committed, re-read from storage.
type CommitResult struct {
	Trip   domain.FullTrip        `json:"trip"`
	Photos domain.PhotoCollection `json:"photos"`
}
