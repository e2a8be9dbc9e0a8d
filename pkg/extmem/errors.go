package extmem

import "errors"

// Kind classifies the errors returned by this package. The caller of
// the binding layer maps each kind onto the matching script exception
// class.
type Kind uint8

const (
	// KindValidation marks a wrong argument kind (nil container,
	// negative count, malformed buffer).
	KindValidation Kind = iota
	// KindType marks an unrecognized element-type tag.
	KindType
	// KindRange marks a violated bound or an arithmetic overflow. Each
	// violated relation has its own error value.
	KindRange
	// KindPrecondition marks a caller bug such as attaching over an
	// existing attachment. Under Config.Strict these panic instead.
	KindPrecondition
)

// Error is an error with a Kind. All sentinel errors below are of this
// type, so callers can branch on either the value or the kind.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Argument and state validation.
var (
	ErrNilContainer       = newError(KindValidation, "container must be an object")
	ErrNilSource          = newError(KindValidation, "source must be an object")
	ErrNilDest            = newError(KindValidation, "dest must be an object")
	ErrNoSourceAttachment = newError(KindValidation, "source has no attachment")
	ErrNoDestAttachment   = newError(KindValidation, "dest has no attachment")
	ErrNegativeArgument   = newError(KindValidation, "offsets, lengths and counts must be non-negative")
	ErrNilCallback        = newError(KindValidation, "release callback must not be nil")
	ErrRaggedBuffer       = newError(KindValidation, "buffer length is not a multiple of the element size")
)

// Element-type failures.
var (
	ErrUnknownElementType = newError(KindType, "unknown element type")
	ErrUnknownSourceType  = newError(KindType, "unknown source element type")
	ErrUnknownDestType    = newError(KindType, "unknown dest element type")
)

// Range failures, one value per violated relation, listed in the order
// the bulk-copy algorithm checks them.
var (
	ErrLengthOverflow         = newError(KindRange, "length times element size overflows")
	ErrLengthTooLarge         = newError(KindRange, "byte length exceeds the attachment ceiling")
	ErrSourceCapacityOverflow = newError(KindRange, "source length times element size overflows")
	ErrCopyLengthOverflow     = newError(KindRange, "copy length times element size overflows")
	ErrDestCapacityOverflow   = newError(KindRange, "dest length times element size overflows")
	ErrCopyBeyondSource       = newError(KindRange, "copy length greater than source capacity")
	ErrCopyBeyondDest         = newError(KindRange, "copy length greater than dest capacity")
	ErrSourceStartTooFar      = newError(KindRange, "source start beyond source capacity")
	ErrDestStartTooFar        = newError(KindRange, "dest start beyond dest capacity")
	ErrSourceRangeTooFar      = newError(KindRange, "source start plus copy length beyond source capacity")
	ErrDestRangeTooFar        = newError(KindRange, "dest start plus copy length beyond dest capacity")
	ErrSliceBounds            = newError(KindRange, "slice bounds out of range")
)

// Caller bugs.
var (
	ErrAlreadyAttached = newError(KindPrecondition, "container already has an attachment")
)

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}

// IsValidationError reports whether err is a wrong-argument error.
func IsValidationError(err error) bool { return isKind(err, KindValidation) }

// IsTypeError reports whether err is an unrecognized-element-type error.
func IsTypeError(err error) bool { return isKind(err, KindType) }

// IsRangeError reports whether err is a bounds or overflow error.
func IsRangeError(err error) bool { return isKind(err, KindRange) }

// IsPreconditionViolation reports whether err marks a caller bug.
func IsPreconditionViolation(err error) bool { return isKind(err, KindPrecondition) }
