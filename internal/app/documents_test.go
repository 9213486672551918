package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/admin-service/internal/domain"
)

func TestFetchDocumentsForOwnAccount(t *testing.T) {
	owner := makeAccount(domain.RoleUser, domain.KYCPending)
	doc := domain.DocumentRef{
		ID:         uuid.New(),
		AccountID:  owner.ID,
		Type:       "passport",
		FileName:   "passport.pdf",
		URL:        "https://storage.transfa.test/passport.pdf",
		UploadedAt: time.Now().UTC(),
	}
	docs := &documentRepoStub{docs: []domain.DocumentRef{doc}}
	repo := &directoryRepoStub{accounts: []domain.Account{owner}}
	svc := newTestService(t, repo, docs)

	listing, err := svc.FetchDocuments(context.Background(), domain.Actor{ID: owner.ID, Role: domain.RoleUser}, owner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !listing.Available {
		t.Fatal("owner must see an available listing")
	}
	if len(listing.Documents) != 1 || listing.Documents[0].ID != doc.ID {
		t.Fatalf("expected the stored document, got %+v", listing.Documents)
	}
}

func TestFetchDocumentsForOtherAccountIsNotAvailable(t *testing.T) {
	owner := makeAccount(domain.RoleUser, domain.KYCPending)
	docs := &documentRepoStub{docs: []domain.DocumentRef{{ID: uuid.New(), AccountID: owner.ID}}}
	repo := &directoryRepoStub{accounts: []domain.Account{owner}}
	svc := newTestService(t, repo, docs)

	listing, err := svc.FetchDocuments(context.Background(), domain.Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}, owner.ID)
	if err != nil {
		t.Fatalf("access restriction is not an error, got %v", err)
	}
	if listing.Available {
		t.Fatal("another account's documents must be reported as not available")
	}
	if len(listing.Documents) != 0 {
		t.Fatal("not-available listing must not leak documents")
	}
	if docs.called {
		t.Fatal("the store must not be queried when the restriction applies")
	}
}

func TestFetchDocumentsEmptyIsAvailableAndEmpty(t *testing.T) {
	owner := makeAccount(domain.RoleUser, domain.KYCPending)
	docs := &documentRepoStub{}
	repo := &directoryRepoStub{accounts: []domain.Account{owner}}
	svc := newTestService(t, repo, docs)

	listing, err := svc.FetchDocuments(context.Background(), domain.Actor{ID: owner.ID, Role: domain.RoleUser}, owner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nothing uploaded yet is a different outcome from not available.
	if !listing.Available {
		t.Fatal("an empty listing for the owner is still available")
	}
	if len(listing.Documents) != 0 {
		t.Fatalf("expected no documents, got %+v", listing.Documents)
	}
}
