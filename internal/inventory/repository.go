package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnitNotFound  = errors.New("inventory unit not found")
	ErrUnitExists    = errors.New("inventory unit already exists for donation")
	ErrUnknownStatus = errors.New("unknown inventory status")
)

type Repository interface {
	Create(ctx context.Context, u Unit) (*Unit, error)
	List(ctx context.Context, f Filter) ([]Unit, error)
	Stock(ctx context.Context, orgID uuid.UUID) ([]GroupStock, error)

	// ExpireAvailable marks available units whose expiry is before now as
	// expired and returns them.
	ExpireAvailable(ctx context.Context, now time.Time) ([]Unit, error)
}
