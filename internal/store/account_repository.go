/**
 * @description
 * This file implements the data access layer for the user directory. It
 * provides a clean interface for the transition engine to read and mutate the
 * `users` table in the database.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - log: For logging database errors.
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the Account model.
 *
 * @notes
 * - Bulk KYC updates use `RETURNING id` so the caller learns exactly which
 *   rows were touched; ids missing from the returned set are reported back
 *   as failed instead of being silently dropped.
 */
package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/admin-service/internal/domain"
)

// PostgresAccountRepository is the PostgreSQL implementation of the
// AccountRepository.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new instance of PostgresAccountRepository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// ListAccounts loads the full directory ordered by creation time, which is
// the order the admin console presents to operators.
func (r *PostgresAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `
        SELECT id, name, email, phone, kyc_status, role,
               role_assigned_by, role_assigned_at, created_at, portfolio_count
        FROM users
        ORDER BY created_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Printf("Error listing accounts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var acc domain.Account
		var assignedBy *uuid.UUID
		var assignedAt *time.Time
		if err := rows.Scan(
			&acc.ID, &acc.Name, &acc.Email, &acc.Phone, &acc.KYCStatus, &acc.Role,
			&assignedBy, &assignedAt, &acc.CreatedAt, &acc.PortfolioCount,
		); err != nil {
			log.Printf("Error scanning account row: %v", err)
			return nil, err
		}
		acc.RoleAssignedBy = assignedBy
		acc.RoleAssignedAt = assignedAt
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// UpdateKYCStatus sets the KYC status for a single account.
func (r *PostgresAccountRepository) UpdateKYCStatus(ctx context.Context, accountID uuid.UUID, status domain.KYCStatus) error {
	query := `UPDATE users SET kyc_status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, status, accountID)
	if err != nil {
		log.Printf("Error updating kyc status for %s: %v", accountID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// BulkUpdateKYCStatus applies the status to every listed account in one
// statement. Ids that matched no row come back in the failed slice.
func (r *PostgresAccountRepository) BulkUpdateKYCStatus(ctx context.Context, accountIDs []uuid.UUID, status domain.KYCStatus) ([]uuid.UUID, error) {
	query := `
        UPDATE users SET kyc_status = $1, updated_at = NOW()
        WHERE id = ANY($2)
        RETURNING id
    `
	rows, err := r.db.Query(ctx, query, status, accountIDs)
	if err != nil {
		log.Printf("Error bulk updating kyc status: %v", err)
		return nil, err
	}
	defer rows.Close()

	updated := make(map[uuid.UUID]bool, len(accountIDs))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var failed []uuid.UUID
	for _, id := range accountIDs {
		if !updated[id] {
			failed = append(failed, id)
		}
	}
	return failed, nil
}

// UpdateRole sets the role and its audit fields atomically in one statement.
func (r *PostgresAccountRepository) UpdateRole(ctx context.Context, accountID uuid.UUID, role domain.Role, assignedBy uuid.UUID) error {
	query := `
        UPDATE users
        SET role = $1, role_assigned_by = $2, role_assigned_at = NOW(), updated_at = NOW()
        WHERE id = $3
    `
	tag, err := r.db.Exec(ctx, query, role, assignedBy, accountID)
	if err != nil {
		log.Printf("Error updating role for %s: %v", accountID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes the account row. Dependent rows (documents, outbox
// entries) are removed by ON DELETE CASCADE constraints.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, accountID)
	if err != nil {
		log.Printf("Error deleting account %s: %v", accountID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	log.Printf("Successfully deleted account %s", accountID)
	return nil
}

// CountByRole returns the number of accounts currently holding the role.
func (r *PostgresAccountRepository) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = $1`
	var count int
	err := r.db.QueryRow(ctx, query, role).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		log.Printf("Error counting accounts by role %s: %v", role, err)
		return 0, err
	}
	return count, nil
}
