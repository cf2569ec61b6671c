// Package access decides whether an incoming attempt may view or answer a
// survey. Evaluation is a pure function over an already-loaded permission
// record and the credentials carried by the request; storage lookups and the
// write-time invariants of the permission record are the caller's problem.
package access

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PermissionType selects the evaluation branch for a survey.
type PermissionType string

const (
	TypePublic        PermissionType = "public"
	TypeURLAccess     PermissionType = "url_access"
	TypeAuthenticated PermissionType = "authenticated"
	TypeRestricted    PermissionType = "restricted"
)

// Reason classifies the outcome of an evaluation. Negative reasons are
// ordinary return values, never errors.
type Reason string

const (
	ReasonOK                     Reason = "ok"
	ReasonInactive               Reason = "inactive"
	ReasonNotYetStarted          Reason = "not_yet_started"
	ReasonExpired                Reason = "expired"
	ReasonPasswordRequired       Reason = "password_required"
	ReasonPasswordIncorrect      Reason = "password_incorrect"
	ReasonEmailNotAllowlisted    Reason = "email_not_allowlisted"
	ReasonAuthenticationRequired Reason = "authentication_required"
)

// Reasons lists every value Evaluate can return. Kept in sync with the
// constants above; the response package tests that each one has an error
// code and message.
var Reasons = []Reason{
	ReasonOK,
	ReasonInactive,
	ReasonNotYetStarted,
	ReasonExpired,
	ReasonPasswordRequired,
	ReasonPasswordIncorrect,
	ReasonEmailNotAllowlisted,
	ReasonAuthenticationRequired,
}

// Permission is a survey's access-control record as stored. AllowedEmails is
// only meaningful for TypeRestricted and is normalized to lowercase at write
// time. PasswordHash is a bcrypt hash; empty means no password gate.
type Permission struct {
	SurveyID      uuid.UUID
	Type          PermissionType
	AllowedEmails []string
	PasswordHash  string
	StartDate     *time.Time
	EndDate       *time.Time
	IsActive      bool
}

// Attempt carries the credentials of a single access attempt. Now is injected
// by the caller so window checks stay deterministic. SuppliedToken is a
// previously minted grant token; it is resolved by the caller before
// evaluation and carried here only for logging.
type Attempt struct {
	SuppliedEmail    string
	SuppliedPassword string
	SuppliedToken    string

	// Set only when the requester holds a valid session.
	AuthenticatedUserID string
	AuthenticatedEmail  string

	Now time.Time
}

// Decision is the outcome of evaluating one attempt against one permission.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

func allow() Decision { return Decision{Allowed: true, Reason: ReasonOK} }

// Evaluate runs the ordered precedence chain: active flag, time window,
// type-specific identity checks, then the optional password gate. The first
// failing check wins. The window dominates the type checks so an expired
// survey reports expired rather than authentication_required; the password
// gate runs after the allowlist so a typo'd email is reported as such instead
// of looking like a missing password.
func Evaluate(perm Permission, attempt Attempt) Decision {
	if !perm.IsActive {
		return deny(ReasonInactive)
	}
	if perm.StartDate != nil && attempt.Now.Before(*perm.StartDate) {
		return deny(ReasonNotYetStarted)
	}
	if perm.EndDate != nil && attempt.Now.After(*perm.EndDate) {
		return deny(ReasonExpired)
	}

	switch perm.Type {
	case TypePublic, TypeURLAccess:
		// url_access carries no identity requirement: knowing the survey ID
		// is treated as legitimate discovery.
	case TypeAuthenticated:
		if attempt.AuthenticatedUserID == "" {
			return deny(ReasonAuthenticationRequired)
		}
	case TypeRestricted:
		email := effectiveEmail(attempt)
		if email == "" {
			return deny(ReasonAuthenticationRequired)
		}
		if !emailAllowed(perm.AllowedEmails, email) {
			return deny(ReasonEmailNotAllowlisted)
		}
	}

	if perm.PasswordHash != "" {
		if attempt.SuppliedPassword == "" {
			return deny(ReasonPasswordRequired)
		}
		// bcrypt comparison is constant-time over the derived key.
		if bcrypt.CompareHashAndPassword([]byte(perm.PasswordHash), []byte(attempt.SuppliedPassword)) != nil {
			return deny(ReasonPasswordIncorrect)
		}
	}

	return allow()
}

// effectiveEmail prefers the authenticated identity's email over a
// caller-supplied one.
func effectiveEmail(attempt Attempt) string {
	if attempt.AuthenticatedUserID != "" && attempt.AuthenticatedEmail != "" {
		return attempt.AuthenticatedEmail
	}
	return attempt.SuppliedEmail
}

func emailAllowed(allowlist []string, email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, e := range allowlist {
		if strings.EqualFold(strings.TrimSpace(e), needle) {
			return true
		}
	}
	return false
}

// NormalizeEmails lowercases and trims an allowlist, dropping empties and
// duplicates. Applied at permission write time so the read path can stay a
// plain comparison.
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		n := strings.ToLower(strings.TrimSpace(e))
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
