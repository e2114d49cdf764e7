package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "menu item not found"))
	if !HasCode(err, CodeNotFound) {
		t.Fatal("expected wrapped error to match NOT_FOUND")
	}
	if HasCode(err, CodeDuplicateID) {
		t.Fatal("did not expect DUPLICATE_ID match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStoreError, "insert order", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "insert order: disk full" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q, want empty", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q, want %q", got, CodeUnknown)
	}
	if got := CodeOf(WithMetadata(CodeInvalidInput, "bad", map[string]string{"Field": "price"})); got != CodeInvalidInput {
		t.Fatalf("CodeOf = %q, want %q", got, CodeInvalidInput)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvalidStatus, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateID, http.StatusConflict},
		{CodeStoreError, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}
