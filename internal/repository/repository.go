package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/config"
)

// ErrSlotTaken is returned when a write would make two blocking appointments of the
// same doctor overlap.
var ErrSlotTaken = errors.New("time slot is already taken")

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}
