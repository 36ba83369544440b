// Package libvmntranscript decodes the artifacts a mix party publishes for one proof of shuffle into typed values.
// Every artifact is keyed by its role. An absent role is recorded as a *MissingArtifactError and never replaced by
// a default value; a present artifact that fails to decode keeps its decoding error.
package libvmntranscript

import (
	"fmt"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Role names an artifact of a proof of shuffle
type Role string

// Artifact roles
const (
	Ciphertexts           Role = "Ciphertexts"
	ShuffledCiphertexts   Role = "ShuffledCiphertexts"
	PermutationCommitment Role = "PermutationCommitment"
	ProofCommitment       Role = "ProofCommitment"
	ProofResponse         Role = "ProofResponse"
	PublicKey             Role = "PublicKey"
	// Challenges is only used when the challenges were chosen by an interactive verifier
	Challenges Role = "Challenges"
)

// Roles lists the artifacts of a complete non-interactive transcript
var Roles = []Role{Ciphertexts, ShuffledCiphertexts, PermutationCommitment, ProofCommitment, ProofResponse, PublicKey}

// MissingArtifactError reports a role absent from the transcript
type MissingArtifactError struct {
	Role Role
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("missing artifact %s", e.Role)
}

// Structs
//______________________________________________________________________________________________________________________

// Commitment is the prover's commitment τ = (B, A', B', C', D', F')
type Commitment struct {
	B  []*libvmnarithm.Element
	AP *libvmnarithm.Element
	BP []*libvmnarithm.Element
	CP *libvmnarithm.Element
	DP *libvmnarithm.Element
	FP *libvmnarithm.Ciphertext
}

// Response is the prover's reply σ = (k_A, k_B, k_C, k_D, k_E, k_F)
type Response struct {
	KA *libvmnarithm.Scalar
	KB []*libvmnarithm.Scalar
	KC *libvmnarithm.Scalar
	KD *libvmnarithm.Scalar
	KE []*libvmnarithm.Scalar
	KF []*libvmnarithm.Scalar
}

// SuppliedChallenges are the batching seed and challenge of an interactive verifier
type SuppliedChallenges struct {
	Seed []byte
	V    *libvmnarithm.Scalar
}

// Transcript holds the decoded artifacts of one proof of shuffle. Fields of absent or invalid roles are nil.
type Transcript struct {
	Group *libvmnarithm.ModPGroup
	Width int

	Ciphertexts           libvmnarithm.CipherVector
	ShuffledCiphertexts   libvmnarithm.CipherVector
	PermutationCommitment []*libvmnarithm.Element
	ProofCommitment       *Commitment
	ProofResponse         *Response
	PublicKey             *libvmnarithm.PublicKey
	Challenges            *SuppliedChallenges

	nodes map[Role]*libvmnbytetree.Node
	errs  map[Role]error
}

// Building
//______________________________________________________________________________________________________________________

// Build decodes every role present in nodes with the schema of that role
func Build(group *libvmnarithm.ModPGroup, width int, nodes map[Role]*libvmnbytetree.Node) *Transcript {
	t := &Transcript{
		Group: group,
		Width: width,
		nodes: make(map[Role]*libvmnbytetree.Node),
		errs:  make(map[Role]error),
	}
	for role, n := range nodes {
		if n == nil {
			continue
		}
		t.nodes[role] = n
		if err := t.decode(role, n); err != nil {
			log.Lvl2("Artifact", role, "rejected:", err)
			t.errs[role] = xerrors.Errorf("%s: %w", role, err)
		}
	}
	return t
}

// BuildFromBytes decodes the byte tree of every file and builds the transcript. A file that is not a byte tree
// makes its role present but invalid.
func BuildFromBytes(group *libvmnarithm.ModPGroup, width int, files map[Role][]byte) *Transcript {
	nodes := make(map[Role]*libvmnbytetree.Node, len(files))
	malformed := make(map[Role]error)
	for role, buf := range files {
		n, err := libvmnbytetree.Decode(buf)
		if err != nil {
			malformed[role] = xerrors.Errorf("%s: %w", role, err)
			continue
		}
		nodes[role] = n
	}

	t := Build(group, width, nodes)
	for role, err := range malformed {
		log.Lvl2("Artifact", role, "is not a byte tree:", err)
		t.errs[role] = err
	}
	return t
}

func (t *Transcript) decode(role Role, n *libvmnbytetree.Node) error {
	var err error
	switch role {
	case Ciphertexts:
		t.Ciphertexts, err = t.Group.CiphertextsFromByteTree(n, t.Width)
	case ShuffledCiphertexts:
		t.ShuffledCiphertexts, err = t.Group.CiphertextsFromByteTree(n, t.Width)
	case PermutationCommitment:
		t.PermutationCommitment, err = t.Group.ElementsFromByteTree(n)
	case ProofCommitment:
		t.ProofCommitment, err = CommitmentFromByteTree(t.Group, n, t.Width)
	case ProofResponse:
		t.ProofResponse, err = ResponseFromByteTree(t.Group.Field(), n, t.Width)
	case PublicKey:
		t.PublicKey, err = t.Group.PublicKeyFromByteTree(n)
	case Challenges:
		t.Challenges, err = ChallengesFromByteTree(t.Group.Field(), n)
	default:
		err = xerrors.Errorf("unknown role %q", role)
	}
	return err
}

// Accessors
//______________________________________________________________________________________________________________________

// Node returns the byte tree the role was decoded from, even if its content was rejected
func (t *Transcript) Node(role Role) (*libvmnbytetree.Node, error) {
	n, ok := t.nodes[role]
	if !ok {
		if err, malformed := t.errs[role]; malformed {
			return nil, err
		}
		return nil, &MissingArtifactError{Role: role}
	}
	return n, nil
}

// Present tells if the role was supplied, valid or not
func (t *Transcript) Present(role Role) bool {
	_, ok := t.nodes[role]
	_, bad := t.errs[role]
	return ok || bad
}

// Err returns nil for a valid role, a *MissingArtifactError for an absent one, the decoding error otherwise
func (t *Transcript) Err(role Role) error {
	if err, ok := t.errs[role]; ok {
		return err
	}
	if _, ok := t.nodes[role]; !ok {
		return &MissingArtifactError{Role: role}
	}
	return nil
}

// Require checks that all roles are present and valid. Absence is reported before invalidity, so a check missing
// any input is undefined rather than invalid.
func (t *Transcript) Require(roles ...Role) error {
	for _, role := range roles {
		if !t.Present(role) {
			return &MissingArtifactError{Role: role}
		}
	}
	for _, role := range roles {
		if err := t.Err(role); err != nil {
			return err
		}
	}
	return nil
}

// Complete checks every role of a non-interactive transcript
func (t *Transcript) Complete() error {
	return t.Require(Roles...)
}

// Size returns the number of ciphertexts N the proof is about, taken from the first decoded artifact that tells it,
// or -1
func (t *Transcript) Size() int {
	switch {
	case t.PermutationCommitment != nil:
		return len(t.PermutationCommitment)
	case t.ProofResponse != nil:
		return len(t.ProofResponse.KE)
	case t.ProofCommitment != nil:
		return len(t.ProofCommitment.B)
	case t.Ciphertexts != nil:
		return len(t.Ciphertexts)
	case t.ShuffledCiphertexts != nil:
		return len(t.ShuffledCiphertexts)
	}
	return -1
}
