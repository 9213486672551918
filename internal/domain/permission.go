/**
 * @description
 * This file implements the permission evaluator: the pure decision function
 * that determines whether an actor may apply a requested transition to a
 * target account. It has no side effects; the transition engine supplies a
 * freshly-read super_admin count so the last-super-admin rule is checked
 * against committed state rather than a stale in-memory view.
 *
 * Rules are checked in order and the first matching denial wins:
 *  1. An actor may not change their own role or delete their own account.
 *  2. Only a super_admin may promote anyone to super_admin.
 *  3. A role change or deletion may not remove the last super_admin.
 *
 * @notes
 * - KYC transitions carry no ordering constraint: any status may move to any
 *   other status. The admin console only surfaces pending -> verified and
 *   pending -> rejected, but the evaluator deliberately does not forbid
 *   reverse transitions.
 */
package domain

// TransitionKind identifies the category of a requested account transition.
type TransitionKind string

const (
	TransitionSetKYC        TransitionKind = "set_kyc"
	TransitionSetRole       TransitionKind = "set_role"
	TransitionDeleteAccount TransitionKind = "delete_account"
)

// Transition is a requested change to a single account. Exactly one of
// NewKYCStatus / NewRole is meaningful depending on Kind.
type Transition struct {
	Kind         TransitionKind
	NewKYCStatus KYCStatus
	NewRole      Role
}

// DenialReason identifies which rule blocked a transition.
type DenialReason string

const (
	DenySelfModification      DenialReason = "self_modification"
	DenyInsufficientPrivilege DenialReason = "insufficient_privilege"
	DenyLastSuperAdmin        DenialReason = "last_super_admin"
)

// Decision is the evaluator's verdict. Reason is set only when Allowed is
// false.
type Decision struct {
	Allowed bool
	Reason  DenialReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenialReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// EvaluateTransition decides whether the actor may apply the transition to
// the target account. superAdminCount must be the latest committed count of
// super_admin accounts, read from the store at decision time.
func EvaluateTransition(actor Actor, target Account, tr Transition, superAdminCount int) Decision {
	if tr.Kind == TransitionSetRole || tr.Kind == TransitionDeleteAccount {
		if target.ID == actor.ID {
			return deny(DenySelfModification)
		}
	}

	switch tr.Kind {
	case TransitionSetRole:
		if tr.NewRole == RoleSuperAdmin && actor.Role != RoleSuperAdmin {
			return deny(DenyInsufficientPrivilege)
		}
		if target.Role == RoleSuperAdmin && tr.NewRole != RoleSuperAdmin && superAdminCount <= 1 {
			return deny(DenyLastSuperAdmin)
		}
	case TransitionDeleteAccount:
		if target.Role == RoleSuperAdmin && superAdminCount <= 1 {
			return deny(DenyLastSuperAdmin)
		}
	}

	return allow()
}
