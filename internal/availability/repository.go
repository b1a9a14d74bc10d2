package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/domain"
)

var ErrAvailabilityNotFound = fmt.Errorf("%w: availability", domain.ErrNotFound)

// Repository contains all DB interactions needed by the registry service.
type Repository interface {
	GetAvailabilityByID(ctx context.Context, id uuid.UUID) (*Availability, error)

	// ListActiveForConflict returns every active window for the same
	// doctor+center+weekday, excluding excludeID when non-nil.
	ListActiveForConflict(ctx context.Context, doctorID, centerID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Availability, error)

	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Availability, error)

	CreateAvailability(ctx context.Context, a *Availability) (*Availability, error)
	UpdateAvailability(ctx context.Context, a *Availability) (*Availability, error)
	SetAvailabilityActive(ctx context.Context, id uuid.UUID, active bool) (*Availability, error)
	DeleteAvailability(ctx context.Context, id uuid.UUID) error
}
