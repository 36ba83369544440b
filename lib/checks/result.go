// Package libvmnchecks evaluates the five batched equations of a proof of shuffle. Each check is independent: it
// reads the transcript, the generators and the challenge and returns its own Result, never failing the others.
package libvmnchecks

import (
	"errors"
	"fmt"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/transcript"
)

// ErrUnavailable is matched by setup errors that prevent evaluating a check without being the prover's fault
var ErrUnavailable = errors.New("unavailable")

// Label names a check
type Label string

// Check labels
const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
	LabelF Label = "F"
)

// Labels lists the checks in report order
var Labels = []Label{LabelA, LabelB, LabelC, LabelD, LabelF}

// Status is the outcome of a check
type Status int

const (
	// Valid means both sides of the equation are equal
	Valid Status = iota
	// Invalid means the equation does not hold or an input was rejected by the algebraic domain
	Invalid
	// Undefined means the check could not be evaluated, typically because an artifact is missing
	Undefined
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "Valid"
	case Invalid:
		return "Invalid"
	case Undefined:
		return "Undefined"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Structs
//______________________________________________________________________________________________________________________

// Result is the outcome of one check, with diagnostics for Invalid and Undefined outcomes
type Result struct {
	Label  Label
	Status Status
	// Err is nil for a valid check
	Err error
	// LHS and RHS are the residues (hexadecimal) compared by a failing equation
	LHS []string
	RHS []string
	// Index is the first failing index of check B, -1 otherwise
	Index int
	// Failures counts the failing indices of check B
	Failures int
}

func valid(label Label) *Result {
	return &Result{Label: label, Status: Valid, Index: -1}
}

// fromError classifies an error raised before the comparison: missing inputs give Undefined, anything else Invalid
func fromError(label Label, err error) *Result {
	res := &Result{Label: label, Status: Invalid, Err: err, Index: -1}
	var missing *libvmntranscript.MissingArtifactError
	if errors.As(err, &missing) || errors.Is(err, ErrUnavailable) {
		res.Status = Undefined
	}
	return res
}

func mismatch(label Label, err error, lhs, rhs []*libvmnarithm.Element) *Result {
	return &Result{Label: label, Status: Invalid, Err: err, LHS: residues(lhs), RHS: residues(rhs), Index: -1}
}

func residues(elems []*libvmnarithm.Element) []string {
	res := make([]string, len(elems))
	for i, e := range elems {
		res[i] = e.BigInt().Text(16)
	}
	return res
}

// Kind returns the name of the error kind of the result, empty for a valid one
func (r *Result) Kind() string {
	return Kind(r.Err)
}

// Kind names the error kind of err
func Kind(err error) string {
	var missing *libvmntranscript.MissingArtifactError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &missing):
		return "MissingArtifact"
	case errors.Is(err, ErrUnavailable):
		return "Unavailable"
	case errors.Is(err, libvmnbytetree.ErrMalformedTree):
		return "MalformedTree"
	case errors.Is(err, libvmnarithm.ErrNotInGroup):
		return "NotInGroup"
	case errors.Is(err, libvmnarithm.ErrNotInField):
		return "NotInField"
	case errors.Is(err, libvmnarithm.ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, libvmnarithm.ErrArithmeticMismatch):
		return "ArithmeticMismatch"
	}
	return "Error"
}

// Reason is a one-line explanation of a non-valid result
func (r *Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r *Result) String() string {
	if r.Status == Valid {
		return fmt.Sprintf("%s: %s", r.Label, r.Status)
	}
	return fmt.Sprintf("%s: %s (%s: %s)", r.Label, r.Status, r.Kind(), r.Reason())
}
