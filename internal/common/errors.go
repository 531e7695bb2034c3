package common

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error kinds. Every failure in the engine wraps exactly one of these so
// callers can switch on errors.Is without string matching.
var (
	// ErrParse marks a malformed row or line; a source-document problem.
	ErrParse = errors.New("parse error")
	// ErrUnitConversion marks a unit token missing from the conversion table.
	ErrUnitConversion = errors.New("unit conversion error")
	// ErrReferential marks a missing named ingredient or a violated
	// integrity constraint during a load.
	ErrReferential = errors.New("referential error")
	// ErrCostCalculation marks an unresolvable price or rate as of the
	// requested date.
	ErrCostCalculation = errors.New("cost calculation error")
	// ErrNotFound marks a read query with no applicable record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks bad caller input at the boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// KindOf names the taxonomy kind of err for structured responses.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrParse):
		return "PARSE_ERROR"
	case errors.Is(err, ErrUnitConversion):
		return "UNIT_CONVERSION_ERROR"
	case errors.Is(err, ErrReferential):
		return "REFERENTIAL_ERROR"
	case errors.Is(err, ErrCostCalculation):
		return "COST_CALCULATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "INTERNAL"
	}
}

// RowError attributes a failure to one row/line of a source document. Raw
// carries the offending value verbatim so the caller can fix the input
// without inspecting internals.
type RowError struct {
	Row  int    `json:"row"`
	Raw  string `json:"raw"`
	Kind string `json:"kind"`
	Err  error  `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%q): %v", e.Row, e.Raw, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// NewRowError builds a RowError, deriving Kind from the wrapped error.
func NewRowError(row int, raw string, err error) RowError {
	return RowError{Row: row, Raw: raw, Kind: KindOf(err), Err: err}
}

// TransactionAbortError signals that a load rolled back every change for
// its file. Rows is the ordered list of row-level errors that caused the
// abort.
type TransactionAbortError struct {
	Source string
	Rows   []RowError
}

func (e *TransactionAbortError) Error() string {
	msgs := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		msgs = append(msgs, r.Error())
	}
	return fmt.Sprintf("load of %q aborted, rolled back: %s", e.Source, strings.Join(msgs, "; "))
}

func (e *TransactionAbortError) Unwrap() []error {
	errs := make([]error, len(e.Rows))
	for i, r := range e.Rows {
		errs[i] = r
	}
	return errs
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers for the API boundary.

func GRPCError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrParse), errors.Is(err, ErrUnitConversion),
		errors.Is(err, ErrReferential), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrCostCalculation):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}
