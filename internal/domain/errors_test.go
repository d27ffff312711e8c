package domain

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrStudentNotFound,
			expected: "Student not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	appErrNoWrap := ErrNoMatch
	if got := appErrNoWrap.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if newErr.Err != underlying {
		t.Errorf("Err = %v, want %v", newErr.Err, underlying)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
}

func TestAppError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "bare sentinel matches itself",
			err:    ErrInvalidImage,
			target: ErrInvalidImage,
			want:   true,
		},
		{
			name:   "sentinel with wrapped cause matches bare sentinel",
			err:    ErrInvalidImage.WithError(errors.New("empty image payload")),
			target: ErrInvalidImage,
			want:   true,
		},
		{
			name:   "wrapped no-face error matches its sentinel",
			err:    ErrNoFaceDetected.WithError(errors.New("detector returned zero regions")),
			target: ErrNoFaceDetected,
			want:   true,
		},
		{
			name:   "distinct sentinels do not match",
			err:    ErrNoFaceDetected.WithError(errors.New("detector returned zero regions")),
			target: ErrInvalidImage,
			want:   false,
		},
		{
			name:   "plain error does not match a sentinel",
			err:    errors.New("plain"),
			target: ErrInvalidImage,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttendanceStatus_Valid(t *testing.T) {
	for _, s := range []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if AttendanceStatus("Excused").Valid() {
		t.Error("unknown status should be invalid")
	}
}
