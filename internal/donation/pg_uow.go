package donation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/db"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/request"
)

// PgUnitOfWork binds every pipeline repository to the same pool or
// transaction.
type PgUnitOfWork struct {
	pool *pgxpool.Pool
}

func NewPgUnitOfWork(pool *pgxpool.Pool) *PgUnitOfWork {
	return &PgUnitOfWork{pool: pool}
}

func storesFor(q db.Querier) Stores {
	return Stores{
		Donations:    NewPgRepository(q),
		Appointments: appointment.NewPgRepository(q),
		Participants: camp.NewPgRepository(q),
		Requests:     request.NewPgRepository(q),
		Inventory:    inventory.NewPgRepository(q),
	}
}

func (u *PgUnitOfWork) Stores() Stores {
	return storesFor(u.pool)
}

func (u *PgUnitOfWork) InTx(ctx context.Context, fn func(s Stores) error) error {
	return db.InTx(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(storesFor(tx))
	})
}
