package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidCost, "item %d: cost %v", 3, -1.5)

	if err.Code != ErrCodeInvalidCost {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidCost)
	}

	if err.Message != "item 3: cost -1.5" {
		t.Errorf("Message = %v, want %v", err.Message, "item 3: cost -1.5")
	}

	expected := "INVALID_COST: item 3: cost -1.5"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Wrap(ErrCodeTimeout, cause, "dp aborted")

	if err.Code != ErrCodeTimeout {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTimeout)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "TIMEOUT: dp aborted: deadline exceeded"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidBudget, "test"),
			code:     ErrCodeInvalidBudget,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidBudget, "test"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStorage, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeStorage,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmtWrap(New(ErrCodeResourceExceeded, "too big")),
			code:     ErrCodeResourceExceeded,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeRunNotFound, "test"), ErrCodeRunNotFound},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		code     Code
		invalid  bool
		resource bool
	}{
		{ErrCodeInvalidCost, true, false},
		{ErrCodeInvalidPrecision, true, false},
		{ErrCodeInvalidAlgorithm, true, false},
		{ErrCodeResourceExceeded, false, true},
		{ErrCodeTimeout, false, true},
		{ErrCodeInternal, false, false},
		{ErrCodeRunNotFound, false, false},
	}

	for _, tt := range tests {
		err := New(tt.code, "x")
		if got := IsInvalidInput(err); got != tt.invalid {
			t.Errorf("IsInvalidInput(%s) = %v, want %v", tt.code, got, tt.invalid)
		}
		if got := IsResourceLimit(err); got != tt.resource {
			t.Errorf("IsResourceLimit(%s) = %v, want %v", tt.code, got, tt.resource)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidCost,
		ErrCodeInvalidValue,
		ErrCodeInvalidBudget,
		ErrCodeInvalidPrecision,
		ErrCodeInvalidAlgorithm,
		ErrCodeInvalidFormat,
		ErrCodeInvalidConfig,
		ErrCodeNotFound,
		ErrCodeRunNotFound,
		ErrCodeFileNotFound,
		ErrCodeResourceExceeded,
		ErrCodeTimeout,
		ErrCodeStorage,
		ErrCodeNetwork,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

func fmtWrap(err error) error {
	return &wrapper{err}
}

type wrapper struct{ err error }

func (w *wrapper) Error() string { return "outer: " + w.err.Error() }
func (w *wrapper) Unwrap() error { return w.err }
