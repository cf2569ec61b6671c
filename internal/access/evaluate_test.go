package access

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	t0     = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func activePerm(typ PermissionType) Permission {
	return Permission{Type: typ, IsActive: true}
}

func TestEvaluateInactiveDeniesEverything(t *testing.T) {
	for _, typ := range []PermissionType{TypePublic, TypeURLAccess, TypeAuthenticated, TypeRestricted} {
		perm := Permission{
			Type:          typ,
			IsActive:      false,
			AllowedEmails: []string{"a@x.com"},
		}
		attempt := Attempt{
			AuthenticatedUserID: "u1",
			AuthenticatedEmail:  "a@x.com",
			SuppliedPassword:    "whatever",
			Now:                 t0,
		}
		d := Evaluate(perm, attempt)
		if d.Allowed || d.Reason != ReasonInactive {
			t.Fatalf("type %s: got %+v, want inactive deny", typ, d)
		}
	}
}

func TestEvaluateTimeWindow(t *testing.T) {
	start := t0.Add(24 * time.Hour)
	end := t0.Add(48 * time.Hour)

	perm := activePerm(TypePublic)
	perm.StartDate = &start
	perm.EndDate = &end

	if d := Evaluate(perm, Attempt{Now: t0}); d.Reason != ReasonNotYetStarted {
		t.Fatalf("before start: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{Now: end.Add(time.Minute)}); d.Reason != ReasonExpired {
		t.Fatalf("after end: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{Now: start.Add(time.Hour)}); !d.Allowed || d.Reason != ReasonOK {
		t.Fatalf("inside window: got %+v", d)
	}
	// Window bounds are inclusive.
	if d := Evaluate(perm, Attempt{Now: start}); !d.Allowed {
		t.Fatalf("at start: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{Now: end}); !d.Allowed {
		t.Fatalf("at end: got %+v", d)
	}
}

// An expired authenticated-only survey must report expired, not
// authentication_required: the window dominates type checks.
func TestEvaluateWindowDominatesTypeChecks(t *testing.T) {
	end := before
	perm := activePerm(TypeAuthenticated)
	perm.EndDate = &end

	d := Evaluate(perm, Attempt{Now: t0})
	if d.Reason != ReasonExpired {
		t.Fatalf("got %+v, want expired", d)
	}
}

func TestEvaluateAuthenticatedRequiresIdentity(t *testing.T) {
	perm := activePerm(TypeAuthenticated)

	if d := Evaluate(perm, Attempt{Now: t0}); d.Reason != ReasonAuthenticationRequired {
		t.Fatalf("anonymous: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{AuthenticatedUserID: "u1", Now: t0}); !d.Allowed {
		t.Fatalf("authenticated: got %+v", d)
	}
}

func TestEvaluateRestricted(t *testing.T) {
	perm := activePerm(TypeRestricted)
	perm.AllowedEmails = []string{"a@x.com", "b@x.com"}

	cases := []struct {
		name    string
		attempt Attempt
		want    Reason
	}{
		{"no identity at all", Attempt{Now: t0}, ReasonAuthenticationRequired},
		{"supplied email allowlisted", Attempt{SuppliedEmail: "b@x.com", Now: t0}, ReasonOK},
		{"supplied email rejected", Attempt{SuppliedEmail: "c@x.com", Now: t0}, ReasonEmailNotAllowlisted},
		{"case-insensitive match", Attempt{SuppliedEmail: "A@X.Com", Now: t0}, ReasonOK},
		{
			"authenticated email wins over supplied",
			Attempt{AuthenticatedUserID: "u1", AuthenticatedEmail: "c@x.com", SuppliedEmail: "a@x.com", Now: t0},
			ReasonEmailNotAllowlisted,
		},
		{
			"authenticated email case-insensitive",
			Attempt{AuthenticatedUserID: "u1", AuthenticatedEmail: "A@X.com", SuppliedEmail: "a@x.com", Now: t0},
			ReasonOK,
		},
	}

	for _, tc := range cases {
		d := Evaluate(perm, tc.attempt)
		if d.Reason != tc.want {
			t.Fatalf("%s: got %+v, want %s", tc.name, d, tc.want)
		}
		if d.Allowed != (tc.want == ReasonOK) {
			t.Fatalf("%s: allowed flag inconsistent with reason: %+v", tc.name, d)
		}
	}
}

// Allowlist failure must surface before the password gate, even when the
// attempt carries a correct password.
func TestEvaluateAllowlistBeforePassword(t *testing.T) {
	perm := activePerm(TypeRestricted)
	perm.AllowedEmails = []string{"a@x.com"}
	perm.PasswordHash = hashOf(t, "secret")

	d := Evaluate(perm, Attempt{SuppliedEmail: "nope@x.com", SuppliedPassword: "secret", Now: t0})
	if d.Reason != ReasonEmailNotAllowlisted {
		t.Fatalf("got %+v, want email_not_allowlisted", d)
	}
}

func TestEvaluatePasswordGate(t *testing.T) {
	perm := activePerm(TypeURLAccess)
	perm.PasswordHash = hashOf(t, "hunter2")

	if d := Evaluate(perm, Attempt{Now: t0}); d.Reason != ReasonPasswordRequired {
		t.Fatalf("missing password: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{SuppliedPassword: "wrong", Now: t0}); d.Reason != ReasonPasswordIncorrect {
		t.Fatalf("wrong password: got %+v", d)
	}
	if d := Evaluate(perm, Attempt{SuppliedPassword: "hunter2", Now: t0}); !d.Allowed {
		t.Fatalf("correct password: got %+v", d)
	}
}

func TestEvaluatePublicNoPassword(t *testing.T) {
	d := Evaluate(activePerm(TypePublic), Attempt{Now: t0})
	if !d.Allowed || d.Reason != ReasonOK {
		t.Fatalf("got %+v", d)
	}
}

func TestNormalizeEmails(t *testing.T) {
	got := NormalizeEmails([]string{" A@X.com ", "b@x.com", "a@x.COM", "", "  "})
	want := []string{"a@x.com", "b@x.com"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
