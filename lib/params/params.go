// Package libvmnparams holds the public parameters of a mix-net session: the protocol info shared by all parties,
// the group, and optionally a fixed list of independent generators. Parameters are read from a TOML file and
// validated once, before any verification.
package libvmnparams

import (
	"errors"
	"fmt"
	"io/ioutil"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// ErrInvalidParameters is matched by every validation error of this package
var ErrInvalidParameters = errors.New("invalid public parameters")

// ChallengeMode tells where the verifier gets its challenges from
type ChallengeMode int

const (
	// FiatShamir derives the batching vector and the challenge from the transcript
	FiatShamir ChallengeMode = iota
	// Supplied reads them from the Challenges artifact written by an interactive verifier
	Supplied
)

func (m ChallengeMode) String() string {
	switch m {
	case FiatShamir:
		return "fiat-shamir"
	case Supplied:
		return "supplied"
	}
	return fmt.Sprintf("ChallengeMode(%d)", int(m))
}

// ParseChallengeMode parses "fiat-shamir" (also the empty string) or "supplied"
func ParseChallengeMode(s string) (ChallengeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fiat-shamir", "fiatshamir", "nizkp":
		return FiatShamir, nil
	case "supplied", "interactive":
		return Supplied, nil
	}
	return FiatShamir, xerrors.Errorf("unknown challenge mode %q: %w", s, ErrInvalidParameters)
}

// Structs
//______________________________________________________________________________________________________________________

// GroupConfig describes the group either by its parameters or by a marshalled Verificatum group
type GroupConfig struct {
	P          string `toml:"p"`
	Q          string `toml:"q"`
	G          string `toml:"g"`
	PGroup     string `toml:"pgroup"`
	Generators string `toml:"generators"`
}

// ProtocolInfo are the session settings every mix party agreed on
type ProtocolInfo struct {
	Version   string      `toml:"version"`
	SID       string      `toml:"sid"`
	AuxSID    string      `toml:"auxsid"`
	Width     int         `toml:"width"`
	RBitLen   int         `toml:"rbitlen"`
	VBitLenRO int         `toml:"vbitlenro"`
	EBitLenRO int         `toml:"ebitlenro"`
	PRG       string      `toml:"prg"`
	ROHash    string      `toml:"rohash"`
	Challenge string      `toml:"challenge"`
	Group     GroupConfig `toml:"group"`
}

// PublicParameters are validated protocol info, group and generators
type PublicParameters struct {
	Info  ProtocolInfo
	Group *libvmnarithm.ModPGroup
	Mode  ChallengeMode

	// Generators is nil when the independent generators are derived from the random oracle
	Generators []*libvmnarithm.Element
}

// DefaultProtocolInfo returns the default settings of a Verificatum session
func DefaultProtocolInfo() ProtocolInfo {
	return ProtocolInfo{
		Version:   "3.1.0",
		SID:       "SessionID",
		AuxSID:    "default",
		Width:     1,
		RBitLen:   100,
		VBitLenRO: 256,
		EBitLenRO: 256,
		PRG:       "SHA-256",
		ROHash:    "SHA-256",
		Challenge: FiatShamir.String(),
	}
}

// Loading
//______________________________________________________________________________________________________________________

// LoadToml reads the parameters from a TOML file. A relative generators path is resolved against the directory of
// the file.
func LoadToml(path string) (*PublicParameters, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading parameters: %w", err)
	}
	return Decode(string(buf), filepath.Dir(path))
}

// Decode parses TOML parameters; unset keys keep their DefaultProtocolInfo value
func Decode(config string, baseDir string) (*PublicParameters, error) {
	info := DefaultProtocolInfo()
	md, err := toml.Decode(config, &info)
	if err != nil {
		return nil, xerrors.Errorf("parsing parameters: %v: %w", err, ErrInvalidParameters)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warn("Ignoring unknown parameter keys:", undecoded)
	}

	group, err := info.Group.parse()
	if err != nil {
		return nil, err
	}

	var generators []*libvmnarithm.Element
	if info.Group.Generators != "" {
		path := info.Group.Generators
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if generators, err = LoadGenerators(group, path); err != nil {
			return nil, err
		}
	}
	return New(info, group, generators)
}

// LoadGenerators reads a byte tree file holding node(h_1, ..., h_N)
func LoadGenerators(group *libvmnarithm.ModPGroup, path string) ([]*libvmnarithm.Element, error) {
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading generators: %w", err)
	}
	tree, err := libvmnbytetree.Decode(buf)
	if err != nil {
		return nil, xerrors.Errorf("generators %s: %w", path, err)
	}
	generators, err := group.ElementsFromByteTree(tree)
	if err != nil {
		return nil, xerrors.Errorf("generators %s: %w", path, err)
	}
	return generators, nil
}

func (gc GroupConfig) parse() (*libvmnarithm.ModPGroup, error) {
	if gc.PGroup != "" {
		if gc.P != "" || gc.Q != "" || gc.G != "" {
			return nil, xerrors.Errorf("group given both as pgroup and as p, q, g: %w", ErrInvalidParameters)
		}
		tree, err := libvmnbytetree.DecodeHex(gc.PGroup)
		if err != nil {
			return nil, xerrors.Errorf("pgroup: %w", err)
		}
		group, err := libvmnarithm.ModPGroupFromByteTree(tree)
		if err != nil {
			return nil, xerrors.Errorf("pgroup: %w", err)
		}
		return group, nil
	}

	values := make([]*big.Int, 3)
	for i, s := range []string{gc.P, gc.Q, gc.G} {
		v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
		if !ok {
			return nil, xerrors.Errorf("group parameter %q is not an integer: %w", s, ErrInvalidParameters)
		}
		values[i] = v
	}
	return libvmnarithm.NewModPGroup(values[0], values[1], values[2])
}

// Validation
//______________________________________________________________________________________________________________________

// New validates info against the group and returns the public parameters
func New(info ProtocolInfo, group *libvmnarithm.ModPGroup, generators []*libvmnarithm.Element) (*PublicParameters, error) {
	if group == nil {
		return nil, xerrors.Errorf("no group: %w", ErrInvalidParameters)
	}
	mode, err := ParseChallengeMode(info.Challenge)
	if err != nil {
		return nil, err
	}
	pp := &PublicParameters{Info: info, Group: group, Mode: mode, Generators: generators}
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	return pp, nil
}

// Validate checks the protocol info against the group
func (pp *PublicParameters) Validate() error {
	info := pp.Info
	qBits := pp.Group.Field().Order().BitLen()

	if info.Width < 1 {
		return xerrors.Errorf("width %d < 1: %w", info.Width, ErrInvalidParameters)
	}
	if info.RBitLen < 0 {
		return xerrors.Errorf("negative statistical distance %d: %w", info.RBitLen, ErrInvalidParameters)
	}
	if info.VBitLenRO < 1 || info.VBitLenRO >= qBits {
		return xerrors.Errorf("challenge bit length %d outside [1, %d): %w", info.VBitLenRO, qBits, ErrInvalidParameters)
	}
	if info.EBitLenRO < 1 || info.EBitLenRO >= qBits {
		return xerrors.Errorf("batching bit length %d outside [1, %d): %w", info.EBitLenRO, qBits, ErrInvalidParameters)
	}
	for _, name := range []string{info.PRG, info.ROHash} {
		if _, err := HashFunction(name); err != nil {
			return xerrors.Errorf("%v: %w", err, ErrInvalidParameters)
		}
	}
	if info.SID == "" {
		return xerrors.Errorf("empty session id: %w", ErrInvalidParameters)
	}
	return nil
}

// SessionID returns sid.auxsid, the full identifier hashed into the random oracle prefix
func (info ProtocolInfo) SessionID() string {
	return info.SID + "." + info.AuxSID
}

func (pp *PublicParameters) String() string {
	return fmt.Sprintf("%s session %s, width %d, %s challenges", pp.Group, pp.Info.SessionID(), pp.Info.Width, pp.Mode)
}
