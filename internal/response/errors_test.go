package response

import (
	"testing"

	"github.com/formpulse/formpulse-backend/internal/access"
)

// Every deny reason the evaluator can produce must map to a dedicated error
// code with its own message — no denial may fall through to the generic text.
func TestAccessCodeCoversAllReasons(t *testing.T) {
	generic := GetMessage(ErrCode("UNKNOWN"))

	for _, reason := range access.Reasons {
		if reason == access.ReasonOK {
			if AccessCode(reason) != "" {
				t.Fatalf("ok must not map to an error code")
			}
			continue
		}
		code := AccessCode(reason)
		if code == "" {
			t.Fatalf("reason %q has no error code", reason)
		}
		if msg := GetMessage(code); msg == generic {
			t.Fatalf("reason %q falls back to the generic message", reason)
		}
	}
}

func TestAccessCodesAreDistinct(t *testing.T) {
	seen := map[ErrCode]access.Reason{}
	for _, reason := range access.Reasons {
		if reason == access.ReasonOK {
			continue
		}
		code := AccessCode(reason)
		if prev, dup := seen[code]; dup {
			t.Fatalf("reasons %q and %q share code %q", prev, reason, code)
		}
		seen[code] = reason
	}
}
