package entity

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
)

func TestFailureErr(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	tests := []struct {
		failure Failure
		op      Operation
		msg     string
		status  int
	}{
		{FailureMissingInput, OperationRequestCode, "Email wajib diisi", http.StatusBadRequest},
		{FailureMissingInput, OperationVerifyCode, "Email dan kode wajib diisi", http.StatusBadRequest},
		{FailureUnknownPrincipal, OperationRequestCode, "User belum terdaftar", http.StatusBadRequest},
		{FailureUnknownPrincipal, OperationVerifyCode, "User tidak ditemukan", http.StatusBadRequest},
		{FailureRateLimited, OperationRequestCode, "Tunggu sebentar sebelum minta kode lagi (maks 1x / 60 detik)", http.StatusTooManyRequests},
		{FailureNoActiveCode, OperationVerifyCode, "Kode sudah kadaluarsa / tidak ditemukan", http.StatusBadRequest},
		{FailureTooManyAttempts, OperationVerifyCode, "Percobaan verifikasi sudah maksimal. Minta kode baru.", http.StatusTooManyRequests},
		{FailureCodeMismatch, OperationVerifyCode, "Kode salah", http.StatusBadRequest},
		{FailurePersistenceError, OperationVerifyCode, "Internal server error", http.StatusInternalServerError},
		{FailureEntropyUnavailable, OperationRequestCode, "Internal server error", http.StatusInternalServerError},
		{FailureHashingFailed, OperationVerifyCode, "Internal server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.failure.String(), func(t *testing.T) {
			t.Parallel()

			var gerr *goerror.Error
			require.ErrorAs(t, tt.failure.Err(tt.op, cause), &gerr)
			assert.Equal(t, tt.msg, gerr.Msg())
			assert.Equal(t, tt.status, gerr.StatusCode())
		})
	}
}

func TestFailureString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CodeMismatch", FailureCodeMismatch.String())
	assert.Equal(t, "Unknown", Failure(0).String())
}

func TestOTPTokenState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tok := OTPToken{ExpiresAt: now.Add(time.Minute), Attempts: 4, MaxAttempts: 5}

	assert.True(t, tok.IsActive(now))
	assert.False(t, tok.IsActive(now.Add(time.Minute)))
	assert.False(t, tok.IsExhausted())

	tok.Attempts = 5
	assert.True(t, tok.IsExhausted())

	tok.UsedAt = &now
	assert.False(t, tok.IsActive(now))
}
