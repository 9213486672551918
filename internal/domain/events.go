/**
 * @description
 * This file defines the event payloads the admin-service publishes to
 * RabbitMQ after a successful transition. Downstream services (notification,
 * customer) consume these to react to verification and privilege changes, so
 * the structures here act as a cross-service contract.
 *
 * @dependencies
 * - None. These are plain Go structs serialized as JSON.
 */
package domain

import "time"

// AccountKYCUpdatedEvent is published after a single or bulk KYC transition.
// For bulk updates one event is published per successfully updated account.
type AccountKYCUpdatedEvent struct {
	AccountID string    `json:"account_id"`
	Status    KYCStatus `json:"status"`
	ActorID   string    `json:"actor_id"`
	At        time.Time `json:"at"`
}

// AccountRoleChangedEvent is published after a successful role transition.
type AccountRoleChangedEvent struct {
	AccountID  string    `json:"account_id"`
	Role       Role      `json:"role"`
	AssignedBy string    `json:"assigned_by"`
	At         time.Time `json:"at"`
}

// AccountDeletedEvent is published after an account is removed from the
// directory.
type AccountDeletedEvent struct {
	AccountID string    `json:"account_id"`
	ActorID   string    `json:"actor_id"`
	At        time.Time `json:"at"`
}
