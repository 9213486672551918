/**
 * @description
 * This file defines the interfaces for the data access layer (repositories).
 * Defining interfaces allows for dependency injection and easy mocking in
 * tests, promoting a loosely coupled architecture.
 *
 * @notes
 * - The transition engine depends on these interfaces, never on the concrete
 *   PostgreSQL implementations.
 * - BulkUpdateKYCStatus reports the ids that were NOT updated so the caller
 *   can surface partial application accurately instead of rounding a partial
 *   result up to full success.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/transfa/admin-service/internal/domain"
)

// ErrAccountNotFound is returned when an operation targets an account id that
// has no row in the directory.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the contract for directory persistence.
type AccountRepository interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateKYCStatus(ctx context.Context, accountID uuid.UUID, status domain.KYCStatus) error
	// BulkUpdateKYCStatus applies the status to every id it can in a single
	// statement and returns the subset of ids that were not applied.
	BulkUpdateKYCStatus(ctx context.Context, accountIDs []uuid.UUID, status domain.KYCStatus) (failed []uuid.UUID, err error)
	UpdateRole(ctx context.Context, accountID uuid.UUID, role domain.Role, assignedBy uuid.UUID) error
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
	// CountByRole reflects the latest committed state; the engine uses it for
	// the last-super-admin check at decision time.
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

// DocumentRepository defines the contract for reading KYC document references.
type DocumentRepository interface {
	FindDocumentsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.DocumentRef, error)
}
