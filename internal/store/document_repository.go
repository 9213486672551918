/**
 * @description
 * This file implements the read-only data access layer for KYC document
 * references. The upload pipeline owns writes to the `kyc_documents` table;
 * the admin-service only lists what is already there.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 */
package store

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/admin-service/internal/domain"
)

// PostgresDocumentRepository is the PostgreSQL implementation of the
// DocumentRepository.
type PostgresDocumentRepository struct {
	db *pgxpool.Pool
}

// NewPostgresDocumentRepository creates a new instance of PostgresDocumentRepository.
func NewPostgresDocumentRepository(db *pgxpool.Pool) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

// FindDocumentsByAccountID lists document references for an account, newest
// first. An account with no documents yields an empty slice, not an error.
func (r *PostgresDocumentRepository) FindDocumentsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.DocumentRef, error) {
	query := `
        SELECT id, user_id, doc_type, file_name, url, uploaded_at
        FROM kyc_documents
        WHERE user_id = $1
        ORDER BY uploaded_at DESC
    `
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		log.Printf("Error listing documents for %s: %v", accountID, err)
		return nil, err
	}
	defer rows.Close()

	var docs []domain.DocumentRef
	for rows.Next() {
		var doc domain.DocumentRef
		if err := rows.Scan(&doc.ID, &doc.AccountID, &doc.Type, &doc.FileName, &doc.URL, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
