package libvmnverifier

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ldsec/vmnverify/lib/checks"
	"github.com/ldsec/vmnverify/lib/params"
	uuid "github.com/satori/go.uuid"
)

// Structs
//______________________________________________________________________________________________________________________

// VerdictReport is the immutable outcome of the verification of one proof
type VerdictReport struct {
	// ID is derived from the session and the batching seed, so verifying the same transcript twice gives the same ID
	ID uuid.UUID
	// Party is the index of the mix party that produced the proof, 0 for a stand-alone proof
	Party int
	// Size is the number of ciphertexts, -1 if unknown
	Size int
	// Challenge is the challenge v in hexadecimal, empty if it could not be computed
	Challenge string
	Mode      libvmnparams.ChallengeMode
	Results   []*libvmnchecks.Result
	// Verdict is true if and only if every check is valid
	Verdict bool
}

func newVerdictReport(pp *libvmnparams.PublicParameters, party int, in *libvmnchecks.Input, results []*libvmnchecks.Result) *VerdictReport {
	r := &VerdictReport{
		Party:   party,
		Size:    in.Transcript.Size(),
		Mode:    pp.Mode,
		Results: results,
		Verdict: true,
	}
	for _, res := range results {
		if res.Status != libvmnchecks.Valid {
			r.Verdict = false
		}
	}

	if in.Challenge != nil {
		r.Challenge = in.Challenge.V.BigInt().Text(16)
		r.ID = uuid.NewV5(uuid.NamespaceOID, pp.Info.SessionID()+"/"+hex.EncodeToString(in.Challenge.Seed))
	} else {
		r.ID = uuid.NewV4()
	}
	return r
}

// Result returns the result of a check
func (r *VerdictReport) Result(label libvmnchecks.Label) *libvmnchecks.Result {
	for _, res := range r.Results {
		if res.Label == label {
			return res
		}
	}
	return nil
}

// Status folds the results: Valid if all checks are valid, Invalid if any is invalid, Undefined otherwise
func (r *VerdictReport) Status() libvmnchecks.Status {
	status := libvmnchecks.Valid
	for _, res := range r.Results {
		switch res.Status {
		case libvmnchecks.Invalid:
			return libvmnchecks.Invalid
		case libvmnchecks.Undefined:
			status = libvmnchecks.Undefined
		}
	}
	return status
}

func (r *VerdictReport) String() string {
	parts := make([]string, len(r.Results))
	for i, res := range r.Results {
		parts[i] = res.Status.String()[:1]
		if res.Status != libvmnchecks.Valid {
			parts[i] = res.String()
		}
	}
	return fmt.Sprintf("%s [%s]", r.Status(), strings.Join(parts, ", "))
}

// ChainReport is the outcome of the verification of a whole mix-net session, one report per party
type ChainReport struct {
	Session string
	Reports []*VerdictReport
	// Verdict is true if and only if there is at least one party and every proof is valid
	Verdict bool
}

// Status folds the party reports the same way VerdictReport.Status folds checks
func (c *ChainReport) Status() libvmnchecks.Status {
	if len(c.Reports) == 0 {
		return libvmnchecks.Undefined
	}
	status := libvmnchecks.Valid
	for _, r := range c.Reports {
		switch r.Status() {
		case libvmnchecks.Invalid:
			return libvmnchecks.Invalid
		case libvmnchecks.Undefined:
			status = libvmnchecks.Undefined
		}
	}
	return status
}
