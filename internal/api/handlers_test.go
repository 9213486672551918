package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/transfa/admin-service/internal/app"
	"github.com/transfa/admin-service/internal/config"
	"github.com/transfa/admin-service/internal/domain"
	"github.com/transfa/admin-service/internal/store"
)

// apiRepoStub backs the engine with an in-memory directory for handler tests.
type apiRepoStub struct {
	accounts []domain.Account
}

func (s *apiRepoStub) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return append([]domain.Account(nil), s.accounts...), nil
}

func (s *apiRepoStub) UpdateKYCStatus(ctx context.Context, accountID uuid.UUID, status domain.KYCStatus) error {
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts[i].KYCStatus = status
			return nil
		}
	}
	return store.ErrAccountNotFound
}

func (s *apiRepoStub) BulkUpdateKYCStatus(ctx context.Context, accountIDs []uuid.UUID, status domain.KYCStatus) ([]uuid.UUID, error) {
	var failed []uuid.UUID
	for _, id := range accountIDs {
		if s.UpdateKYCStatus(ctx, id, status) != nil {
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func (s *apiRepoStub) UpdateRole(ctx context.Context, accountID uuid.UUID, role domain.Role, assignedBy uuid.UUID) error {
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts[i].Role = role
			return nil
		}
	}
	return store.ErrAccountNotFound
}

func (s *apiRepoStub) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return store.ErrAccountNotFound
}

func (s *apiRepoStub) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	count := 0
	for _, acc := range s.accounts {
		if acc.Role == role {
			count++
		}
	}
	return count, nil
}

type apiDocsStub struct {
	docs []domain.DocumentRef
}

func (s *apiDocsStub) FindDocumentsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.DocumentRef, error) {
	return s.docs, nil
}

func testAccount(role domain.Role, status domain.KYCStatus) domain.Account {
	return domain.Account{
		ID:        uuid.New(),
		Name:      "Handler Test",
		Email:     "handler@transfa.test",
		Phone:     "0800000000",
		KYCStatus: status,
		Role:      role,
	}
}

func newTestRouter(t *testing.T, accounts ...domain.Account) http.Handler {
	t.Helper()
	repo := &apiRepoStub{accounts: accounts}
	svc := app.NewService(repo, &apiDocsStub{}, nil, "admin_events")
	if err := svc.RefreshDirectory(context.Background()); err != nil {
		t.Fatalf("refresh directory: %v", err)
	}
	handlers := NewAdminHandlers(svc, nil, 0)
	cfg := config.Config{ServerPort: "8080"}
	return NewRouter(&cfg, handlers)
}

// do executes the request via the router with the X-Clerk-User-Id fast path.
func do(t *testing.T, router http.Handler, method, path, subject, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if subject != "" {
		req.Header.Set("X-Clerk-User-Id", subject)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListAccountsRequiresAuth(t *testing.T) {
	router := newTestRouter(t, testAccount(domain.RoleAdmin, domain.KYCVerified))

	rec := do(t, router, http.MethodGet, "/admin/accounts", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestListAccountsReturnsProjection(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	pending := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, pending)

	rec := do(t, router, http.MethodGet, "/admin/accounts?filter=pending", admin.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var projection struct {
		Visible []domain.Account `json:"visible"`
		Counts  app.Counts       `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &projection); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(projection.Visible) != 1 || projection.Visible[0].ID != pending.ID {
		t.Fatalf("expected only the pending account visible, got %+v", projection.Visible)
	}
	want := app.Counts{All: 2, Pending: 1, Verified: 1, Admins: 1}
	if projection.Counts != want {
		t.Fatalf("expected counts %+v, got %+v", want, projection.Counts)
	}
}

func TestListAccountsRejectsUnknownFilter(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	router := newTestRouter(t, admin)

	rec := do(t, router, http.MethodGet, "/admin/accounts?filter=bogus", admin.ID.String(), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListAccountsForbiddenForRegularUser(t *testing.T) {
	user := testAccount(domain.RoleUser, domain.KYCVerified)
	router := newTestRouter(t, user)

	rec := do(t, router, http.MethodGet, "/admin/accounts", user.ID.String(), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Reason != string(domain.DenyInsufficientPrivilege) {
		t.Fatalf("expected insufficient_privilege reason, got %q", resp.Reason)
	}
}

func TestUpdateRoleDenialCarriesReason(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	lastSuper := testAccount(domain.RoleSuperAdmin, domain.KYCVerified)
	router := newTestRouter(t, admin, lastSuper)

	rec := do(t, router, http.MethodPatch, "/admin/accounts/"+lastSuper.ID.String()+"/role", admin.ID.String(), `{"role":"admin"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Reason != string(domain.DenyLastSuperAdmin) {
		t.Fatalf("expected last_super_admin reason, got %q", resp.Reason)
	}
}

func TestUpdateKYCSuccessReturnsPatchedAccount(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	target := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, target)

	rec := do(t, router, http.MethodPatch, "/admin/accounts/"+target.ID.String()+"/kyc", admin.ID.String(), `{"status":"verified"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var account domain.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if account.KYCStatus != domain.KYCVerified {
		t.Fatalf("expected verified, got %s", account.KYCStatus)
	}
	if account.Role != domain.RoleUser {
		t.Fatalf("kyc update must not change role, got %s", account.Role)
	}
}

func TestUpdateKYCRejectsUnknownStatus(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	target := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, target)

	rec := do(t, router, http.MethodPatch, "/admin/accounts/"+target.ID.String()+"/kyc", admin.ID.String(), `{"status":"approved"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteUnknownAccountReturns404(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	router := newTestRouter(t, admin)

	rec := do(t, router, http.MethodDelete, "/admin/accounts/"+uuid.NewString(), admin.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBulkKYCEmptySelectionReturns400(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	router := newTestRouter(t, admin)

	rec := do(t, router, http.MethodPost, "/admin/accounts/kyc/bulk", admin.ID.String(), `{"account_ids":[],"status":"verified"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBulkKYCReportsFailedIDs(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	target := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, target)
	missing := uuid.New()

	body := `{"account_ids":["` + target.ID.String() + `","` + missing.String() + `"],"status":"verified"}`
	rec := do(t, router, http.MethodPost, "/admin/accounts/kyc/bulk", admin.ID.String(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp bulkKYCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.UpdatedCount != 1 || len(resp.UpdatedIDs) != 1 || resp.UpdatedIDs[0] != target.ID.String() {
		t.Fatalf("expected the present account updated, got %+v", resp)
	}
	if len(resp.FailedIDs) != 1 || resp.FailedIDs[0] != missing.String() {
		t.Fatalf("expected the missing id reported as failed, got %+v", resp)
	}
}

func TestBusyEndpoint(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	target := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, target)

	rec := do(t, router, http.MethodGet, "/admin/accounts/"+target.ID.String()+"/busy", admin.ID.String(), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without an action parameter, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/admin/accounts/"+target.ID.String()+"/busy?action=kyc:verified", admin.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp busyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Busy {
		t.Fatal("no transition is in flight, busy must be false")
	}
}

func TestDocumentsForOtherAccountNotAvailable(t *testing.T) {
	admin := testAccount(domain.RoleAdmin, domain.KYCVerified)
	target := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, admin, target)

	rec := do(t, router, http.MethodGet, "/admin/accounts/"+target.ID.String()+"/documents", admin.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing domain.DocumentListing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if listing.Available {
		t.Fatal("another account's documents must not be available")
	}
}

func TestDocumentsForOwnAccountAvailable(t *testing.T) {
	user := testAccount(domain.RoleUser, domain.KYCPending)
	router := newTestRouter(t, user)

	rec := do(t, router, http.MethodGet, "/admin/accounts/"+user.ID.String()+"/documents", user.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing domain.DocumentListing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !listing.Available {
		t.Fatal("owner's listing must be available")
	}
	if listing.Documents == nil {
		t.Fatal("available listing must carry an array, not null")
	}
}
