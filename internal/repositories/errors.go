package repositories

import (
	"errors"

	"github.com/anonto42/nano-press/backend/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps a storage error onto the application error kinds. what
// names the entity for not-found and conflict messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.Wrap(err, apperrors.KindNotFound, what+" not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return apperrors.Wrap(err, apperrors.KindConflict, what+" already exists")
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.Wrap(err, apperrors.KindNotFound, "referenced user not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperrors.Wrap(err, apperrors.KindConflict, what+" already exists")
		case pgForeignKeyViolation:
			return apperrors.Wrap(err, apperrors.KindNotFound, "referenced user not found")
		case pgCheckViolation:
			return apperrors.Wrap(err, apperrors.KindInvalidOperation, "invalid "+what)
		}
	}
	return apperrors.Upstream(err, "storage failure")
}
