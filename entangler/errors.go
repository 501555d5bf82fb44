package entangler

import (
	"errors"
	"fmt"

	"github.com/MixinNetwork/entangler/token"
)

type Code uint32

const (
	CodeAlreadyInitialized Code = 6000 + iota
	CodeUnauthorized
	CodeInsufficientFunds
	CodeOneWayViolation
	CodePermanentlyLocked
	CodeFeeMismatch
	CodeInvalidDiscriminator
	CodeForeignAccount
	CodeNotInitialized
	CodeInvalidArgument
	CodeCollectionMismatch
	CodeInvalidState
	CodeConflict
)

var codeNames = map[Code]string{
	CodeAlreadyInitialized:   "AlreadyInitialized",
	CodeUnauthorized:         "Unauthorized",
	CodeInsufficientFunds:    "InsufficientFunds",
	CodeOneWayViolation:      "OneWayViolation",
	CodePermanentlyLocked:    "PermanentlyLocked",
	CodeFeeMismatch:          "FeeMismatch",
	CodeInvalidDiscriminator: "InvalidDiscriminator",
	CodeForeignAccount:       "ForeignAccount",
	CodeNotInitialized:       "NotInitialized",
	CodeInvalidArgument:      "InvalidArgument",
	CodeCollectionMismatch:   "CollectionMismatch",
	CodeInvalidState:         "InvalidState",
	CodeConflict:             "Conflict",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", uint32(c))
}

var (
	ErrAlreadyInitialized   = &Error{Code: CodeAlreadyInitialized}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized}
	ErrInsufficientFunds    = &Error{Code: CodeInsufficientFunds}
	ErrOneWayViolation      = &Error{Code: CodeOneWayViolation}
	ErrPermanentlyLocked    = &Error{Code: CodePermanentlyLocked}
	ErrFeeMismatch          = &Error{Code: CodeFeeMismatch}
	ErrInvalidDiscriminator = &Error{Code: CodeInvalidDiscriminator}
	ErrForeignAccount       = &Error{Code: CodeForeignAccount}
	ErrNotInitialized       = &Error{Code: CodeNotInitialized}
	ErrInvalidArgument      = &Error{Code: CodeInvalidArgument}
	ErrCollectionMismatch   = &Error{Code: CodeCollectionMismatch}
	ErrInvalidState         = &Error{Code: CodeInvalidState}
	ErrConflict             = &Error{Code: CodeConflict}
)

// Error is the structured failure of a request. Precondition names the
// account or rule that did not hold; Err is the ledger or metadata error it
// was raised from, if any.
type Error struct {
	Code         Code
	Precondition string
	Err          error
}

func NewError(code Code, precondition string) *Error {
	return &Error{Code: code, Precondition: precondition}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s(%d)", e.Code, uint32(e.Code))
	if e.Precondition != "" {
		msg = msg + " " + e.Precondition
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the code of err, zero when it is not a request error.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// ledgerError translates token ledger and metadata failures into request
// errors. Unknown errors are wrapped unchanged.
func ledgerError(err error, precondition string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	code := Code(0)
	switch {
	case errors.Is(err, token.ErrInsufficientFunds):
		code = CodeInsufficientFunds
	case errors.Is(err, token.ErrOwnerMismatch),
		errors.Is(err, token.ErrMissingAuthority),
		errors.Is(err, token.ErrInvalidInvoker),
		errors.Is(err, token.ErrUnregisteredInvoker),
		errors.Is(err, token.ErrInvalidSignature):
		code = CodeUnauthorized
	case errors.Is(err, token.ErrAccountInUse),
		errors.Is(err, token.ErrMetadataExists):
		code = CodeAlreadyInitialized
	case errors.Is(err, token.ErrNotCollection):
		code = CodeCollectionMismatch
	case errors.Is(err, token.ErrAccountNotFound),
		errors.Is(err, token.ErrMetadataNotFound):
		code = CodeNotInitialized
	case errors.Is(err, token.ErrNotMint),
		errors.Is(err, token.ErrNotTokenAccount),
		errors.Is(err, token.ErrMintMismatch),
		errors.Is(err, token.ErrNotNonFungible),
		errors.Is(err, token.ErrInvalidCreators),
		errors.Is(err, token.ErrInvalidRoyalties):
		code = CodeInvalidArgument
	default:
		return fmt.Errorf("%s: %w", precondition, err)
	}
	return &Error{Code: code, Precondition: precondition, Err: err}
}
