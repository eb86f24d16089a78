package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"banking-ledger/internal/domain"
	"banking-ledger/internal/errors"
)

// userDirectory reads the users table maintained by the user service. This
// subsystem never writes to it.
type userDirectory struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewUserDirectory(db SQLExecutor, logger *slog.Logger) domain.UserDirectory {
	return &userDirectory{
		db:     db,
		logger: logger,
	}
}

func (d *userDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, found, err := d.lookup(ctx, userID)
	return found, err
}

func (d *userDirectory) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	active, found, err := d.lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, errors.ErrOwnerNotFound.WithField("owner_id", userID)
	}
	return active, nil
}

func (d *userDirectory) lookup(ctx context.Context, userID uuid.UUID) (active, found bool, err error) {
	err = d.db.QueryRowContext(ctx, `SELECT is_active FROM users WHERE id = $1`, userID).Scan(&active)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		d.logger.Error("Failed to look up user", "owner_id", userID, "error", err)
		return false, false, errors.Internal("failed to look up user", err)
	}
	return active, true, nil
}
