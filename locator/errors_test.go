package locator

import (
	"io/fs"
	"testing"

	"github.com/Iron-Ham/servloc/internal/errors"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(NotProvided, "audio"), "service <audio> is not provided yet"},
		{newError(AlreadyProvided, "audio"), "service <audio> is already provided"},
		{newError(Poisoned, "audio"), "service <audio> is poisoned: a caller panicked while holding it mutably"},
		{ErrNotProvided, "service is not provided yet"},
		{&Error{Kind: Kind(42)}, "service: unknown locator error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		target  error
		matches bool
	}{
		{"not provided sentinel", newError(NotProvided, "x"), ErrNotProvided, true},
		{"already provided sentinel", newError(AlreadyProvided, "x"), ErrAlreadyProvided, true},
		{"poisoned sentinel", newError(Poisoned, "x"), ErrPoisoned, true},
		{"kind mismatch", newError(Poisoned, "x"), ErrNotProvided, false},
		{"not provided is not exist", newError(NotProvided, "x"), fs.ErrNotExist, true},
		{"already provided is exist", newError(AlreadyProvided, "x"), fs.ErrExist, true},
		{"poisoned is neither", newError(Poisoned, "x"), fs.ErrNotExist, false},
		{"unrelated target", newError(NotProvided, "x"), fs.ErrPermission, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.matches {
				t.Errorf("errors.Is = %v, want %v", got, tt.matches)
			}
		})
	}
}

func TestErrorExternal(t *testing.T) {
	t.Run("not provided maps to not found", func(t *testing.T) {
		ext := newError(NotProvided, "audio").External()
		var nf *errors.NotFoundError
		if !errors.As(ext, &nf) {
			t.Fatalf("expected NotFoundError, got %T", ext)
		}
		if nf.ResourceID != "audio" {
			t.Errorf("ResourceID = %q", nf.ResourceID)
		}
		if !errors.IsRetryable(ext) {
			t.Error("an unprovided service should be retryable")
		}
		if !errors.Is(ext, ErrNotProvided) || !errors.Is(ext, fs.ErrNotExist) {
			t.Error("external error should still match the locator error")
		}
	})

	t.Run("already provided maps to already exists", func(t *testing.T) {
		ext := newError(AlreadyProvided, "audio").External()
		var ae *errors.AlreadyExistsError
		if !errors.As(ext, &ae) {
			t.Fatalf("expected AlreadyExistsError, got %T", ext)
		}
		if !errors.Is(ext, ErrAlreadyProvided) {
			t.Error("external error should still match the locator error")
		}
	})

	t.Run("poisoned maps to generic failure", func(t *testing.T) {
		ext := newError(Poisoned, "audio").External()
		if !errors.Is(ext, errors.ErrOperationFailed) {
			t.Fatalf("expected ErrOperationFailed, got %v", ext)
		}
		if !errors.Is(ext, ErrPoisoned) {
			t.Error("external error should still match the locator error")
		}
	})

	t.Run("sentinel without a service name", func(t *testing.T) {
		var nf *errors.NotFoundError
		if !errors.As(ErrNotProvided.External(), &nf) || nf.ResourceID != "unknown" {
			t.Errorf("unexpected external error for sentinel: %v", ErrNotProvided.External())
		}
	})
}
