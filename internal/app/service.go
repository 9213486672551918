/**
 * @description
 * This file contains the core business logic for the admin-service: the
 * transition engine. The `Service` struct owns the in-memory directory of
 * accounts and is its sole writer. Every mutation follows the same shape:
 * acquire the in-flight lock for the (account, action) pair, consult the
 * permission evaluator with a freshly-read super_admin count, apply the
 * change to the account store, and merge the confirmed result back into the
 * in-memory set.
 *
 * Key features:
 * - At-most-one-in-flight semantics per (account, action): a duplicate
 *   request is rejected immediately with ErrAlreadyInFlight, never queued.
 * - Merge isolation: a KYC update only ever touches kyc_status; a role
 *   update only ever touches role and its audit fields.
 * - Deletion clears every outstanding lock for the account and implicitly
 *   cancels (without failing) any other in-flight transition's merge step.
 * - Successful transitions publish events to RabbitMQ for downstream
 *   services; publish failures are logged, never surfaced to the caller.
 *
 * @dependencies
 * - context, errors, log, sync, time: Standard Go libraries.
 * - github.com/google/uuid: Account identifiers.
 * - internal/domain, internal/store: Domain models, evaluator and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/admin-service/internal/domain"
	"github.com/transfa/admin-service/internal/store"
	"github.com/transfa/admin-service/pkg/rabbitmq"
)

// Action tags used for in-flight lock keys. Kyc and role tags are suffixed
// with the requested target value so transitions towards different values do
// not block each other.
const (
	actionDelete = "delete"
)

// ActionKYC returns the lock action tag for a KYC transition to the status.
func ActionKYC(status domain.KYCStatus) string {
	return "kyc:" + string(status)
}

// ActionRole returns the lock action tag for a role transition to the role.
func ActionRole(role domain.Role) string {
	return "role:" + string(role)
}

// ActionBulkKYC returns the lock action tag for a bulk KYC transition. Bulk
// operations hold one lock per target status, not one per member id.
func ActionBulkKYC(status domain.KYCStatus) string {
	return "bulk:" + string(status)
}

// ActionDelete returns the lock action tag for account deletion.
func ActionDelete() string {
	return actionDelete
}

// lockKey is the composite in-flight lock key. Using a struct key instead of
// a concatenated string avoids prefix collisions between unrelated ids.
// Bulk operations use the zero account id.
type lockKey struct {
	accountID uuid.UUID
	action    string
}

// BulkKYCResult reports the outcome of a bulk KYC transition. Failed carries
// the ids the store did not apply; it is never rounded up to full success.
type BulkKYCResult struct {
	Updated []uuid.UUID
	Failed  []uuid.UUID
}

// Service is the transition engine. It is the only component allowed to
// mutate the in-memory account set.
type Service struct {
	repo          store.AccountRepository
	docs          store.DocumentRepository
	events        rabbitmq.Publisher
	eventExchange string

	mu       sync.Mutex
	accounts []domain.Account
	inflight map[lockKey]struct{}

	now func() time.Time
}

// NewService creates a new transition engine instance. The events publisher
// may be nil, in which case no events are published.
func NewService(repo store.AccountRepository, docs store.DocumentRepository, events rabbitmq.Publisher, eventExchange string) *Service {
	return &Service{
		repo:          repo,
		docs:          docs,
		events:        events,
		eventExchange: eventExchange,
		inflight:      make(map[lockKey]struct{}),
		now:           time.Now,
	}
}

// RefreshDirectory reloads the in-memory account set from the store. It is
// called once at startup and periodically afterwards.
func (s *Service) RefreshDirectory(ctx context.Context) error {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return &StoreError{Op: "list_accounts", Err: err}
	}
	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()
	log.Printf("Directory refreshed: %d accounts loaded", len(accounts))
	return nil
}

// Accounts returns a snapshot copy of the current directory in its stored
// order.
func (s *Service) Accounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]domain.Account, len(s.accounts))
	copy(snapshot, s.accounts)
	return snapshot
}

// FindAccount returns the directory entry for the id, if present.
func (s *Service) FindAccount(accountID uuid.UUID) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(accountID)
}

// IsBusy reports whether a transition is currently in flight for the
// (account, action) pair. The console uses this to disable duplicate-action
// controls.
func (s *Service) IsBusy(accountID uuid.UUID, action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[lockKey{accountID: accountID, action: action}]
	return busy
}

// Project derives the filtered/searched view and per-tab counts from the
// current directory snapshot.
func (s *Service) Project(filter Filter, search string) Projection {
	return Project(s.Accounts(), filter, search)
}

// SetKYCStatus applies a single KYC transition. On success it returns the
// patched account; only kyc_status changes, every other field is untouched.
func (s *Service) SetKYCStatus(ctx context.Context, actor domain.Actor, accountID uuid.UUID, status domain.KYCStatus) (*domain.Account, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &PermissionDeniedError{Reason: domain.DenyInsufficientPrivilege}
	}

	key := lockKey{accountID: accountID, action: ActionKYC(status)}
	if !s.acquire(key) {
		return nil, ErrAlreadyInFlight
	}
	defer s.release(key)

	target, ok := s.FindAccount(accountID)
	if !ok {
		return nil, ErrNotFound
	}

	if err := s.repo.UpdateKYCStatus(ctx, accountID, status); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.evict(accountID)
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "update_kyc", Err: err}
	}

	patched := s.mergeKYC(accountID, status)
	if patched == nil {
		// The account was deleted while the store call was in flight. The
		// merge is cancelled; report the state the store confirmed.
		target.KYCStatus = status
		patched = &target
	}

	s.publish(ctx, "admin.account.kyc_updated", domain.AccountKYCUpdatedEvent{
		AccountID: accountID.String(),
		Status:    status,
		ActorID:   actor.ID.String(),
		At:        s.now().UTC(),
	})
	return patched, nil
}

// BulkSetKYCStatus applies one KYC status to a set of accounts through a
// single store call. It holds one lock keyed by the target status, so two
// bulk calls towards different statuses may run concurrently while duplicate
// calls for the same status are rejected.
func (s *Service) BulkSetKYCStatus(ctx context.Context, actor domain.Actor, accountIDs []uuid.UUID, status domain.KYCStatus) (*BulkKYCResult, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &PermissionDeniedError{Reason: domain.DenyInsufficientPrivilege}
	}
	if len(accountIDs) == 0 {
		return nil, ErrEmptySelection
	}

	key := lockKey{action: ActionBulkKYC(status)}
	if !s.acquire(key) {
		return nil, ErrAlreadyInFlight
	}
	defer s.release(key)

	failed, err := s.repo.BulkUpdateKYCStatus(ctx, accountIDs, status)
	if err != nil {
		// Single-statement semantics: a store error means none applied.
		return nil, &StoreError{Op: "bulk_update_kyc", Err: err}
	}

	failedSet := make(map[uuid.UUID]bool, len(failed))
	for _, id := range failed {
		failedSet[id] = true
	}

	result := &BulkKYCResult{Failed: failed}
	for _, id := range accountIDs {
		if failedSet[id] {
			continue
		}
		result.Updated = append(result.Updated, id)
		s.mergeKYC(id, status)
		s.publish(ctx, "admin.account.kyc_updated", domain.AccountKYCUpdatedEvent{
			AccountID: id.String(),
			Status:    status,
			ActorID:   actor.ID.String(),
			At:        s.now().UTC(),
		})
	}
	return result, nil
}

// AssignRole applies a role transition. The permission evaluator runs with a
// super_admin count read from the store at decision time, not a cached one,
// because counts can change between renders of the console.
func (s *Service) AssignRole(ctx context.Context, actor domain.Actor, accountID uuid.UUID, role domain.Role) (*domain.Account, error) {
	if !actor.Role.IsPrivileged() {
		return nil, &PermissionDeniedError{Reason: domain.DenyInsufficientPrivilege}
	}

	key := lockKey{accountID: accountID, action: ActionRole(role)}
	if !s.acquire(key) {
		return nil, ErrAlreadyInFlight
	}
	defer s.release(key)

	target, ok := s.FindAccount(accountID)
	if !ok {
		return nil, ErrNotFound
	}

	superAdmins, err := s.repo.CountByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return nil, &StoreError{Op: "count_by_role", Err: err}
	}

	decision := domain.EvaluateTransition(actor, target, domain.Transition{
		Kind:    domain.TransitionSetRole,
		NewRole: role,
	}, superAdmins)
	if !decision.Allowed {
		return nil, &PermissionDeniedError{Reason: decision.Reason}
	}

	if err := s.repo.UpdateRole(ctx, accountID, role, actor.ID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.evict(accountID)
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "update_role", Err: err}
	}

	assignedAt := s.now().UTC()
	patched := s.mergeRole(accountID, role, actor.ID, assignedAt)
	if patched == nil {
		target.Role = role
		target.RoleAssignedBy = &actor.ID
		target.RoleAssignedAt = &assignedAt
		patched = &target
	}

	s.publish(ctx, "admin.account.role_changed", domain.AccountRoleChangedEvent{
		AccountID:  accountID.String(),
		Role:       role,
		AssignedBy: actor.ID.String(),
		At:         assignedAt,
	})
	return patched, nil
}

// DeleteAccount removes an account from the store and the directory. Any
// outstanding locks for the id are discarded so a racing transition cannot
// leave a dangling lock, and its merge step becomes a no-op.
func (s *Service) DeleteAccount(ctx context.Context, actor domain.Actor, accountID uuid.UUID) error {
	if !actor.Role.IsPrivileged() {
		return &PermissionDeniedError{Reason: domain.DenyInsufficientPrivilege}
	}

	key := lockKey{accountID: accountID, action: ActionDelete()}
	if !s.acquire(key) {
		return ErrAlreadyInFlight
	}
	defer s.release(key)

	target, ok := s.FindAccount(accountID)
	if !ok {
		return ErrNotFound
	}

	superAdmins, err := s.repo.CountByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return &StoreError{Op: "count_by_role", Err: err}
	}

	decision := domain.EvaluateTransition(actor, target, domain.Transition{
		Kind: domain.TransitionDeleteAccount,
	}, superAdmins)
	if !decision.Allowed {
		return &PermissionDeniedError{Reason: decision.Reason}
	}

	if err := s.repo.DeleteAccount(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.evict(accountID)
			return ErrNotFound
		}
		return &StoreError{Op: "delete_account", Err: err}
	}

	s.evict(accountID)

	s.publish(ctx, "admin.account.deleted", domain.AccountDeletedEvent{
		AccountID: accountID.String(),
		ActorID:   actor.ID.String(),
		At:        s.now().UTC(),
	})
	return nil
}

// FetchDocuments lists KYC document references for an account. A caller may
// only fetch documents for their own account; any other id yields an
// explicit not-available listing, which is distinct from an empty listing
// for an account that simply has no documents yet.
func (s *Service) FetchDocuments(ctx context.Context, actor domain.Actor, accountID uuid.UUID) (*domain.DocumentListing, error) {
	if actor.ID != accountID {
		return &domain.DocumentListing{Available: false}, nil
	}

	docs, err := s.docs.FindDocumentsByAccountID(ctx, accountID)
	if err != nil {
		return nil, &StoreError{Op: "list_documents", Err: err}
	}
	return &domain.DocumentListing{Available: true, Documents: docs}, nil
}

// acquire claims the lock key. It returns false if the key is already busy;
// duplicate requests are rejected, never queued.
func (s *Service) acquire(key lockKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key lockKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The key may already be gone if the account was deleted mid-flight.
	delete(s.inflight, key)
}

func (s *Service) lookupLocked(accountID uuid.UUID) (domain.Account, bool) {
	for _, acc := range s.accounts {
		if acc.ID == accountID {
			return acc, true
		}
	}
	return domain.Account{}, false
}

// mergeKYC patches only the kyc_status of the matching entry. It returns nil
// when the entry is gone, in which case the merge is silently cancelled
// rather than re-inserting the account.
func (s *Service) mergeKYC(accountID uuid.UUID, status domain.KYCStatus) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts[i].KYCStatus = status
			patched := s.accounts[i]
			return &patched
		}
	}
	return nil
}

// mergeRole patches role, role_assigned_by and role_assigned_at together and
// nothing else.
func (s *Service) mergeRole(accountID uuid.UUID, role domain.Role, assignedBy uuid.UUID, assignedAt time.Time) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts[i].Role = role
			by := assignedBy
			at := assignedAt
			s.accounts[i].RoleAssignedBy = &by
			s.accounts[i].RoleAssignedAt = &at
			patched := s.accounts[i]
			return &patched
		}
	}
	return nil
}

// evict removes the entry from the directory and discards every in-flight
// lock that references the id.
func (s *Service) evict(accountID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == accountID {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			break
		}
	}
	for key := range s.inflight {
		if key.accountID == accountID {
			delete(s.inflight, key)
		}
	}
}

// publish sends an event to the admin exchange. Failures are logged and
// never surfaced: the transition itself has already been committed.
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, s.eventExchange, routingKey, body); err != nil {
		log.Printf("WARN: Failed to publish %s event: %v", routingKey, err)
	}
}
