package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := NotFound("no record at position %d", 7)
	if !IsKind(err, KindNotFound) {
		t.Error("Expected KindNotFound")
	}
	if IsKind(err, KindValidation) {
		t.Error("Did not expect KindValidation")
	}
	if err.Error() != "not_found: no record at position 7" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestIsKind_WrappedChain(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("append failed: %w", Consistency(cause, "index out of sync"))

	if !IsKind(err, KindConsistency) {
		t.Error("Expected KindConsistency through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to survive the chain")
	}
}

func TestIs_MatchesByKind(t *testing.T) {
	err := Validation("query text is required")
	if !errors.Is(err, &Error{Kind: KindValidation}) {
		t.Error("Expected kind-only target to match")
	}
	if errors.Is(err, &Error{Kind: KindValidation, Msg: "different"}) {
		t.Error("Mismatched message must not match")
	}
}

func TestService_WrapsCause(t *testing.T) {
	cause := errors.New("rate limited")
	err := Service(cause, "judge call failed")
	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}
	if !IsKind(err, KindService) {
		t.Error("Expected KindService")
	}
}
