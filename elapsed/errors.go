package elapsed

import (
	"errors"
	"strconv"
)

// Kind separates caller mistakes (KindLogic) from bad argument values (KindValue).
type Kind int

const (
	KindLogic Kind = iota + 1
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindLogic:
		return "logic"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

type Code int

const (
	CodeInvertedInterval  Code = 10000
	CodeIntervalNotSet    Code = 20000
	CodeAmountNotNumeric  Code = 30000
	CodeAmountNotPositive Code = 40000
	CodeUnitNotRecognized Code = 50000
)

// Error is returned by every failing operation of this package.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

var (
	// ErrLogic and ErrValue match any error of their kind.
	ErrLogic = &Error{Kind: KindLogic}
	ErrValue = &Error{Kind: KindValue}

	ErrInvertedInterval  = &Error{Kind: KindLogic, Code: CodeInvertedInterval}
	ErrIntervalNotSet    = &Error{Kind: KindLogic, Code: CodeIntervalNotSet}
	ErrAmountNotNumeric  = &Error{Kind: KindLogic, Code: CodeAmountNotNumeric}
	ErrAmountNotPositive = &Error{Kind: KindValue, Code: CodeAmountNotPositive}
	ErrUnitNotRecognized = &Error{Kind: KindValue, Code: CodeUnitNotRecognized}
)

func newError(kind Kind, code Code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String() + " error " + strconv.Itoa(int(e.Code))
}

// Is matches on kind, and additionally on code when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == 0 || t.Code == e.Code
}

// KindOf returns the kind of err, or 0 if err did not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf returns the code of err, or 0 if err did not come from this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
