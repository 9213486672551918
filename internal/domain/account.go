/**
 * @description
 * This file defines the core domain models for the admin-service: the user
 * directory entry (Account), its KYC verification lifecycle, and its privilege
 * role. These types are shared by the transition engine, the store layer, and
 * the API handlers.
 *
 * @dependencies
 * - time: For role-assignment and creation timestamps.
 * - github.com/google/uuid: Account and actor identifiers.
 *
 * @notes
 * - KYC status and role are two independent lifecycles. A KYC update must
 *   never touch role fields and a role update must never touch KYC fields;
 *   the transition engine enforces this when merging store results.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// KYCStatus represents the identity-verification state of an account.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

// IsValid reports whether the status is one of the known KYC states.
func (s KYCStatus) IsValid() bool {
	switch s {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// Role represents the privilege tier of an account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsValid reports whether the role is one of the known privilege tiers.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsPrivileged reports whether the role grants access to the admin console.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Account is a single entry in the user directory. Accounts are created by
// the onboarding flow (auth-service/customer-service); the admin-service only
// mutates kyc_status, role and the role-assignment audit fields, and may
// delete the account entirely.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	KYCStatus      KYCStatus  `json:"kyc_status"`
	Role           Role       `json:"role"`
	RoleAssignedBy *uuid.UUID `json:"role_assigned_by,omitempty"`
	RoleAssignedAt *time.Time `json:"role_assigned_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	PortfolioCount int        `json:"portfolio_count"`
}

// Actor is the authenticated identity performing an admin operation, as
// resolved by the auth middleware plus a directory lookup.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
