/**
 * @description
 * This file contains the HTTP handlers for the admin-service API. Handlers
 * are responsible for parsing incoming requests, resolving the acting
 * account, calling the transition engine, and mapping its typed errors onto
 * HTTP statuses. They act as the bridge between the web layer and the
 * business logic layer.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: Engine, view model and domain models.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/transfa/admin-service/internal/app"
	"github.com/transfa/admin-service/internal/domain"
)

// AdminHandlers holds the transition engine and the rate limiter the
// handlers use.
type AdminHandlers struct {
	service            *app.Service
	limiter            *app.RedisAdminRateLimiter
	bulkLimitPerMinute int
}

// NewAdminHandlers creates the handler set. The limiter may be nil, which
// disables rate limiting.
func NewAdminHandlers(service *app.Service, limiter *app.RedisAdminRateLimiter, bulkLimitPerMinute int) *AdminHandlers {
	return &AdminHandlers{
		service:            service,
		limiter:            limiter,
		bulkLimitPerMinute: bulkLimitPerMinute,
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type updateKYCRequest struct {
	Status domain.KYCStatus `json:"status"`
}

type bulkKYCRequest struct {
	AccountIDs []string         `json:"account_ids"`
	Status     domain.KYCStatus `json:"status"`
}

type bulkKYCResponse struct {
	UpdatedCount int      `json:"updated_count"`
	UpdatedIDs   []string `json:"updated_ids"`
	FailedIDs    []string `json:"failed_ids"`
}

type updateRoleRequest struct {
	Role domain.Role `json:"role"`
}

type busyResponse struct {
	Busy bool `json:"busy"`
}

func (h *AdminHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (h *AdminHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// writeEngineError maps the engine's typed errors onto HTTP statuses. Every
// permission denial carries its reason so the console can render a specific
// message.
func (h *AdminHandlers) writeEngineError(w http.ResponseWriter, err error) {
	var denied *app.PermissionDeniedError
	if errors.As(err, &denied) {
		h.writeJSON(w, http.StatusForbidden, errorResponse{
			Error:  denied.Error(),
			Reason: string(denied.Reason),
		})
		return
	}
	var storeErr *app.StoreError
	if errors.As(err, &storeErr) {
		log.Printf("Store failure surfaced to API: %v", storeErr)
		h.writeError(w, http.StatusBadGateway, "account store unavailable")
		return
	}
	switch {
	case errors.Is(err, app.ErrAlreadyInFlight):
		h.writeError(w, http.StatusConflict, "this action is already in progress for the account")
	case errors.Is(err, app.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, app.ErrEmptySelection):
		h.writeError(w, http.StatusBadRequest, "no accounts selected")
	default:
		log.Printf("Unexpected engine error: %v", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// resolveActor turns the authenticated subject into an Actor backed by the
// directory. It writes the error response itself when resolution fails.
func (h *AdminHandlers) resolveActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	subject, ok := GetAuthSubject(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing authenticated subject")
		return domain.Actor{}, false
	}
	actorID, err := uuid.Parse(subject)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid authenticated subject")
		return domain.Actor{}, false
	}
	account, ok := h.service.FindAccount(actorID)
	if !ok {
		h.writeError(w, http.StatusForbidden, "acting account is not in the directory")
		return domain.Actor{}, false
	}
	return domain.Actor{ID: account.ID, Role: account.Role}, true
}

func (h *AdminHandlers) requireAdmin(w http.ResponseWriter, actor domain.Actor) bool {
	if !actor.Role.IsPrivileged() {
		h.writeJSON(w, http.StatusForbidden, errorResponse{
			Error:  "admin privileges required",
			Reason: string(domain.DenyInsufficientPrivilege),
		})
		return false
	}
	return true
}

func (h *AdminHandlers) accountIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}

// ListAccounts serves the directory projection for the console: the visible
// accounts under the active filter and search text plus the per-tab counts.
func (h *AdminHandlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok || !h.requireAdmin(w, actor) {
		return
	}

	filter, ok := app.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown filter")
		return
	}
	search := r.URL.Query().Get("search")

	projection := h.service.Project(filter, search)
	if projection.Visible == nil {
		projection.Visible = []domain.Account{}
	}
	h.writeJSON(w, http.StatusOK, projection)
}

// UpdateKYC applies a single KYC transition to the account in the URL.
func (h *AdminHandlers) UpdateKYC(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	var req updateKYCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.IsValid() {
		h.writeError(w, http.StatusBadRequest, "unknown kyc status")
		return
	}

	account, err := h.service.SetKYCStatus(r.Context(), actor, accountID, req.Status)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// BulkKYC applies one KYC status to a selection of accounts. The endpoint is
// rate limited per actor because it fans out events downstream.
func (h *AdminHandlers) BulkKYC(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok {
		return
	}

	if h.limiter != nil {
		count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "bulk_kyc", actor.ID.String(), h.bulkLimitPerMinute, time.Minute)
		if err != nil {
			log.Printf("WARN: rate limiter unavailable, allowing request: %v", err)
		} else if h.bulkLimitPerMinute > 0 && count > h.bulkLimitPerMinute {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, "too many bulk updates, slow down")
			return
		}
	}

	var req bulkKYCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.IsValid() {
		h.writeError(w, http.StatusBadRequest, "unknown kyc status")
		return
	}

	accountIDs := make([]uuid.UUID, 0, len(req.AccountIDs))
	for _, raw := range req.AccountIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid account id in selection: "+raw)
			return
		}
		accountIDs = append(accountIDs, id)
	}

	result, err := h.service.BulkSetKYCStatus(r.Context(), actor, accountIDs, req.Status)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	resp := bulkKYCResponse{
		UpdatedCount: len(result.Updated),
		UpdatedIDs:   make([]string, 0, len(result.Updated)),
		FailedIDs:    make([]string, 0, len(result.Failed)),
	}
	for _, id := range result.Updated {
		resp.UpdatedIDs = append(resp.UpdatedIDs, id.String())
	}
	for _, id := range result.Failed {
		resp.FailedIDs = append(resp.FailedIDs, id.String())
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateRole applies a role transition to the account in the URL.
func (h *AdminHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Role.IsValid() {
		h.writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	account, err := h.service.AssignRole(r.Context(), actor, accountID, req.Role)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// DeleteAccount removes the account in the URL from the directory.
func (h *AdminHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), actor, accountID); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Busy reports whether a transition is in flight for the (account, action)
// pair so the console can disable the matching control.
func (h *AdminHandlers) Busy(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok || !h.requireAdmin(w, actor) {
		return
	}
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}
	action := r.URL.Query().Get("action")
	if action == "" {
		h.writeError(w, http.StatusBadRequest, "action query parameter required")
		return
	}
	h.writeJSON(w, http.StatusOK, busyResponse{Busy: h.service.IsBusy(accountID, action)})
}

// Documents lists KYC document references for the account in the URL. Any
// authenticated user may call this, but only the owner sees an available
// listing.
func (h *AdminHandlers) Documents(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolveActor(w, r)
	if !ok {
		return
	}
	accountID, ok := h.accountIDParam(w, r)
	if !ok {
		return
	}

	listing, err := h.service.FetchDocuments(r.Context(), actor, accountID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if listing.Available && listing.Documents == nil {
		listing.Documents = []domain.DocumentRef{}
	}
	h.writeJSON(w, http.StatusOK, listing)
}
