package request

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrRequestNotFound = errors.New("blood request not found")

type Repository interface {
	Create(ctx context.Context, r BloodRequest) (*BloodRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, status Status) ([]BloodRequest, error)

	// Fulfill closes an open request on behalf of a donation. Returns
	// ErrRequestNotFound when the request does not exist or is not open.
	Fulfill(ctx context.Context, id, donationID uuid.UUID) (*BloodRequest, error)
	// Reopen reverts a request to open on behalf of a failed donation. A
	// request fulfilled by a different donation, or cancelled, is left alone
	// and reported as ErrRequestNotFound.
	Reopen(ctx context.Context, id, donationID uuid.UUID) (*BloodRequest, error)
	Cancel(ctx context.Context, id uuid.UUID) (*BloodRequest, error)
}
