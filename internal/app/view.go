/**
 * @description
 * This file implements the view model for the admin console's directory
 * screen: a pure projection of (accounts, filter, search) onto the visible
 * list and the per-tab counts. The projection is recomputed on demand and
 * introduces no ordering of its own; the visible list preserves the
 * directory's existing order.
 *
 * @notes
 * - Counts are computed over the full account set restricted only by each
 *   tab's own predicate. Neither the active filter nor the search text
 *   changes the other tabs' counts.
 * - Search applies after the filter, matches name/email case-insensitively
 *   and phone as a raw substring, and is skipped entirely when the trimmed
 *   search text is empty.
 */
package app

import (
	"strings"

	"github.com/transfa/admin-service/internal/domain"
)

// Filter selects which accounts the directory screen shows.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterVerified Filter = "verified"
	FilterRejected Filter = "rejected"
	FilterAdmins   Filter = "admins"
)

// ParseFilter maps a query-string value onto a Filter. An empty value means
// no exclusion.
func ParseFilter(value string) (Filter, bool) {
	switch Filter(strings.TrimSpace(value)) {
	case "", FilterAll:
		return FilterAll, true
	case FilterPending:
		return FilterPending, true
	case FilterVerified:
		return FilterVerified, true
	case FilterRejected:
		return FilterRejected, true
	case FilterAdmins:
		return FilterAdmins, true
	}
	return "", false
}

// Counts carries the per-tab totals for the directory screen.
type Counts struct {
	All      int `json:"all"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
	Admins   int `json:"admins"`
}

// Projection is the derived view: the visible subsequence plus the counts.
type Projection struct {
	Visible []domain.Account `json:"visible"`
	Counts  Counts           `json:"counts"`
}

// Project derives the projection from the account set. It is a pure function
// of its inputs.
func Project(accounts []domain.Account, filter Filter, search string) Projection {
	var p Projection

	for _, acc := range accounts {
		p.Counts.All++
		switch acc.KYCStatus {
		case domain.KYCPending:
			p.Counts.Pending++
		case domain.KYCVerified:
			p.Counts.Verified++
		case domain.KYCRejected:
			p.Counts.Rejected++
		}
		if acc.Role.IsPrivileged() {
			p.Counts.Admins++
		}
	}

	needle := strings.TrimSpace(search)
	lowered := strings.ToLower(needle)

	for _, acc := range accounts {
		if !matchesFilter(acc, filter) {
			continue
		}
		if needle != "" && !matchesSearch(acc, lowered, needle) {
			continue
		}
		p.Visible = append(p.Visible, acc)
	}
	return p
}

func matchesFilter(acc domain.Account, filter Filter) bool {
	switch filter {
	case FilterPending:
		return acc.KYCStatus == domain.KYCPending
	case FilterVerified:
		return acc.KYCStatus == domain.KYCVerified
	case FilterRejected:
		return acc.KYCStatus == domain.KYCRejected
	case FilterAdmins:
		return acc.Role.IsPrivileged()
	default:
		return true
	}
}

// matchesSearch checks name and email case-insensitively. Phone numbers have
// no case, so the raw needle is matched as a substring instead.
func matchesSearch(acc domain.Account, lowered, raw string) bool {
	if strings.Contains(strings.ToLower(acc.Name), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(acc.Email), lowered) {
		return true
	}
	return strings.Contains(acc.Phone, raw)
}
