package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduling/internal/domain"
)

var (
	ErrDoctorNotFound   = fmt.Errorf("%w: doctor", domain.ErrNotFound)
	ErrPatientNotFound  = fmt.Errorf("%w: patient", domain.ErrNotFound)
	ErrRoomNotFound     = fmt.Errorf("%w: room", domain.ErrNotFound)
	ErrCenterNotFound   = fmt.Errorf("%w: health center", domain.ErrNotFound)
	ErrDurationNotFound = fmt.Errorf("%w: consultation duration", domain.ErrNotFound)
)

// Repository exposes the read-only lookups the scheduling core needs from
// the rest of the clinic system. Nothing here mutates.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetHealthCenterByID(ctx context.Context, id uuid.UUID) (*HealthCenter, error)
	GetConsultationDurationByID(ctx context.Context, id uuid.UUID) (*ConsultationDuration, error)

	// GetRoomByID returns the room hydrated with its declared opening windows.
	GetRoomByID(ctx context.Context, id uuid.UUID) (*Room, error)
}
