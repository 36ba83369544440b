// Package libvmnverifier runs the verification of proofs of shuffle: it derives the challenge of a transcript once,
// evaluates the five checks against it and folds their outcomes into a verdict. Verification has no side effect
// besides logging.
package libvmnverifier

import (
	"strconv"

	"github.com/fanliao/go-concurrentMap"
	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/challenge"
	"github.com/ldsec/vmnverify/lib/checks"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Verifier verifies the proofs of one session. It can be used from several goroutines.
type Verifier struct {
	pp      *libvmnparams.PublicParameters
	deriver *libvmnchallenge.Deriver

	// derived generators by number of ciphertexts
	generators *concurrent.ConcurrentMap
}

// NewVerifier creates a verifier for validated public parameters
func NewVerifier(pp *libvmnparams.PublicParameters) (*Verifier, error) {
	if pp == nil {
		return nil, xerrors.New("no public parameters")
	}
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	d, err := libvmnchallenge.NewDeriver(pp)
	if err != nil {
		return nil, err
	}
	return &Verifier{pp: pp, deriver: d, generators: concurrent.NewConcurrentMap()}, nil
}

// Params returns the public parameters of the verifier
func (v *Verifier) Params() *libvmnparams.PublicParameters {
	return v.pp
}

// Generators returns h_1, ..., h_n: the first n configured generators, or derived ones
func (v *Verifier) Generators(n int) ([]*libvmnarithm.Element, error) {
	if v.pp.Generators != nil {
		if len(v.pp.Generators) < n {
			return nil, xerrors.Errorf("%d generators configured for %d ciphertexts: %w", len(v.pp.Generators), n, libvmnchecks.ErrUnavailable)
		}
		return v.pp.Generators[:n], nil
	}

	key := strconv.Itoa(n)
	if cached, err := v.generators.Get(key); err == nil && cached != nil {
		return cached.([]*libvmnarithm.Element), nil
	}
	h := v.deriver.Generators(n)
	if _, err := v.generators.Put(key, h); err != nil {
		log.Warn("Could not cache generators:", err)
	}
	return h, nil
}

// setup computes the number of ciphertexts, the generators and the challenge shared by all checks
func (v *Verifier) setup(t *libvmntranscript.Transcript) *libvmnchecks.Input {
	in := &libvmnchecks.Input{Transcript: t}

	n := t.Size()
	if n < 0 {
		// nothing tells the size of the shuffle: every check misses its first artifact
		in.SetupErr = t.Complete()
		if in.SetupErr == nil {
			in.SetupErr = xerrors.Errorf("no artifact tells the number of ciphertexts: %w", libvmnchecks.ErrUnavailable)
		}
		return in
	}

	h, err := v.Generators(n)
	if err != nil {
		in.SetupErr = err
		return in
	}
	c, err := v.deriver.Derive(t, h)
	if err != nil {
		in.SetupErr = err
		return in
	}
	in.Generators = h
	in.Challenge = c
	return in
}

// Verify derives the challenge of t once, evaluates all five checks (concurrently if libvmn.PARALLELIZE is set) and
// returns the report once every check is done
func (v *Verifier) Verify(t *libvmntranscript.Transcript) *VerdictReport {
	return v.verify(t, 0)
}

func (v *Verifier) verify(t *libvmntranscript.Transcript, party int) *VerdictReport {
	timer := libvmn.StartTimer("Verification")
	defer libvmn.EndTimer(timer)

	in := v.setup(t)
	results := make([]*libvmnchecks.Result, len(libvmnchecks.Definitions))

	wg := libvmn.StartParallelize(uint(len(libvmnchecks.Definitions)))
	for i, def := range libvmnchecks.Definitions {
		if libvmn.PARALLELIZE {
			go func(i int, def libvmnchecks.Definition) {
				results[i] = libvmnchecks.Run(def, in)
				wg.Done(nil)
			}(i, def)
		} else {
			results[i] = libvmnchecks.Run(def, in)
			wg.Done(nil)
		}
	}
	libvmn.EndParallelize(wg)

	report := newVerdictReport(v.pp, party, in, results)
	log.Lvl1("Verification of", report.Size, "ciphertexts:", report.Status())
	return report
}

// VerifyDataset decodes the files of a proof, builds its transcript and verifies it. A file that is not a byte
// tree invalidates the checks that need it.
func (v *Verifier) VerifyDataset(files map[libvmntranscript.Role][]byte) *VerdictReport {
	return v.VerifyParty(0, files)
}

// VerifyParty is VerifyDataset for the proof of mix party l
func (v *Verifier) VerifyParty(l int, files map[libvmntranscript.Role][]byte) *VerdictReport {
	t := libvmntranscript.BuildFromBytes(v.pp.Group, v.pp.Info.Width, files)
	return v.verify(t, l)
}
