/**
 * @description
 * This file defines the read-only document reference model. The admin-service
 * never uploads or mutates documents; it only lists references to documents
 * that the onboarding pipeline has already stored.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRef points at a KYC document stored by the upload pipeline.
type DocumentRef struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	Type       string    `json:"type"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentListing is the outcome of a document fetch. Available distinguishes
// "the caller may not see these documents" from "the account simply has no
// documents yet": an empty Documents slice with Available true means nothing
// has been uploaded, while Available false means the access restriction
// applied and Documents carries no information.
type DocumentListing struct {
	Available bool          `json:"available"`
	Documents []DocumentRef `json:"documents"`
}
