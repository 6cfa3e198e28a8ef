package entity

import (
	"github.com/shandysiswandi/titipyuk/internal/pkg/goerror"
)

// Failure is the closed set of reasons a code request or verification ends
// without success. AlreadyVerified is a success flag, not a Failure.
type Failure int

const (
	FailureMissingInput Failure = iota + 1
	FailureUnknownPrincipal
	FailureRateLimited
	FailureNoActiveCode
	FailureTooManyAttempts
	FailureCodeMismatch
	FailurePersistenceError
	FailureEntropyUnavailable
	FailureHashingFailed
)

func (f Failure) String() string {
	switch f {
	case FailureMissingInput:
		return "MissingInput"
	case FailureUnknownPrincipal:
		return "UnknownPrincipal"
	case FailureRateLimited:
		return "RateLimited"
	case FailureNoActiveCode:
		return "NoActiveCode"
	case FailureTooManyAttempts:
		return "TooManyAttempts"
	case FailureCodeMismatch:
		return "CodeMismatch"
	case FailurePersistenceError:
		return "PersistenceError"
	case FailureEntropyUnavailable:
		return "EntropyUnavailable"
	case FailureHashingFailed:
		return "HashingFailed"
	default:
		return "Unknown"
	}
}

// Operation selects the wording of messages that differ between the two
// endpoints.
type Operation int

const (
	OperationRequestCode Operation = iota + 1
	OperationVerifyCode
)

// Err maps the failure to the error the HTTP layer renders. cause is kept
// for server-side failures only and never reaches the client.
func (f Failure) Err(op Operation, cause error) error {
	switch f {
	case FailureMissingInput:
		if op == OperationVerifyCode {
			return goerror.NewBusiness("Email dan kode wajib diisi", goerror.CodeInvalidFormat)
		}
		return goerror.NewBusiness("Email wajib diisi", goerror.CodeInvalidFormat)
	case FailureUnknownPrincipal:
		if op == OperationVerifyCode {
			return goerror.NewBusiness("User tidak ditemukan", goerror.CodeInvalidFormat)
		}
		return goerror.NewBusiness("User belum terdaftar", goerror.CodeInvalidFormat)
	case FailureRateLimited:
		return goerror.NewBusiness("Tunggu sebentar sebelum minta kode lagi (maks 1x / 60 detik)", goerror.CodeTooManyRequest)
	case FailureNoActiveCode:
		return goerror.NewBusiness("Kode sudah kadaluarsa / tidak ditemukan", goerror.CodeInvalidFormat)
	case FailureTooManyAttempts:
		return goerror.NewBusiness("Percobaan verifikasi sudah maksimal. Minta kode baru.", goerror.CodeTooManyRequest)
	case FailureCodeMismatch:
		return goerror.NewBusiness("Kode salah", goerror.CodeInvalidFormat)
	case FailurePersistenceError, FailureEntropyUnavailable, FailureHashingFailed:
		return goerror.NewServer(cause)
	default:
		return goerror.NewServer(cause)
	}
}
