package service

import (
	"errors"
	"testing"
	"time"

	"github.com/formpulse/formpulse-backend/internal/model"
)

func TestValidatePermissionUpdateRestrictedNeedsAllowlist(t *testing.T) {
	req := &model.UpdatePermissionRequest{PermissionType: "restricted"}
	if err := ValidatePermissionUpdate(req); !errors.Is(err, ErrAllowlistRequired) {
		t.Fatalf("expected ErrAllowlistRequired, got %v", err)
	}

	// An allowlist of blanks normalizes to empty and fails the same way.
	req.AllowedEmails = []string{"  ", ""}
	if err := ValidatePermissionUpdate(req); !errors.Is(err, ErrAllowlistRequired) {
		t.Fatalf("expected ErrAllowlistRequired for blank entries, got %v", err)
	}

	req.AllowedEmails = []string{"alice@example.com"}
	if err := ValidatePermissionUpdate(req); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidatePermissionUpdateDateWindow(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	cases := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		wantErr error
	}{
		{"no window", nil, nil, nil},
		{"only start", &start, nil, nil},
		{"only end", nil, &end, nil},
		{"ordered", &start, &end, nil},
		{"reversed", &end, &start, ErrInvalidDateWindow},
		{"equal", &start, &start, ErrInvalidDateWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &model.UpdatePermissionRequest{
				PermissionType: "public",
				StartDate:      tc.start,
				EndDate:        tc.end,
			}
			err := ValidatePermissionUpdate(req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidatePermissionUpdateNonRestrictedIgnoresAllowlist(t *testing.T) {
	req := &model.UpdatePermissionRequest{PermissionType: "public"}
	if err := ValidatePermissionUpdate(req); err != nil {
		t.Fatalf("public with no allowlist should be valid, got %v", err)
	}
}
