// Package libvmndataset maps the files a Verificatum session leaves on disk to the artifact roles of each mix party.
// A session directory holds the public key, the input and output ciphertexts and, usually under proofs/, the
// per-party files PermutationCommitmentXX.bt, PoSCommitmentXX.bt, PoSReplyXX.bt and the intermediate lists
// CiphertextsXX.bt.
package libvmndataset

import (
	"context"
	"fmt"
	"io/fs"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// File names of a session
const (
	// ProofDir is where Verificatum writes the non-interactive proofs below its working directory
	ProofDir = "dir/nizkp/default"
	// ProofsSubDir holds the per-party files
	ProofsSubDir = "proofs"

	PublicKeyFile           = "FullPublicKey.bt"
	CiphertextsFile         = "Ciphertexts.bt"
	ShuffledCiphertextsFile = "ShuffledCiphertexts.bt"

	PermutationCommitmentPrefix = "PermutationCommitment"
	ProofCommitmentPrefix       = "PoSCommitment"
	ProofResponsePrefix         = "PoSReply"
	CiphertextsPrefix           = "Ciphertexts"
	ChallengesPrefix            = "Challenges"
)

// maxParallelReads bounds the number of files read at the same time
const maxParallelReads = 16

var partyFile = regexp.MustCompile(`^(PermutationCommitment|PoSCommitment|PoSReply)(\d{2,})\.bt$`)

// Structs
//______________________________________________________________________________________________________________________

// Dataset holds the content of the byte tree files of a session, by file name
type Dataset struct {
	Root    string
	files   map[string][]byte
	parties []int
}

// New creates a dataset from in-memory files keyed by base name
func New(files map[string][]byte) *Dataset {
	ds := &Dataset{files: make(map[string][]byte, len(files))}
	for name, buf := range files {
		ds.files[name] = buf
	}
	ds.discoverParties()
	return ds
}

// PartyFileName returns the name of the file of party l with the given prefix
func PartyFileName(prefix string, l int) string {
	return fmt.Sprintf("%s%02d.bt", prefix, l)
}

func (ds *Dataset) discoverParties() {
	seen := make(map[int]bool)
	for name := range ds.files {
		if m := partyFile.FindStringSubmatch(name); m != nil {
			l, err := strconv.Atoi(m[2])
			if err == nil && l > 0 {
				seen[l] = true
			}
		}
	}
	ds.parties = make([]int, 0, len(seen))
	for l := range seen {
		ds.parties = append(ds.parties, l)
	}
	sort.Ints(ds.parties)
}

// Loading
//______________________________________________________________________________________________________________________

// Load reads every .bt file below dir, or below dir/dir/nizkp/default if it exists. Files are read concurrently;
// cancelling ctx aborts the load.
func Load(ctx context.Context, dir string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := dir
	if info, err := os.Stat(filepath.Join(dir, ProofDir)); err == nil && info.IsDir() {
		root = filepath.Join(dir, ProofDir)
	}

	paths := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".bt") {
			return nil
		}
		if previous, ok := paths[d.Name()]; ok {
			return xerrors.Errorf("%s found both in %s and %s", d.Name(), previous, path)
		}
		paths[d.Name()] = path
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("scanning dataset: %w", err)
	}
	if len(paths) == 0 {
		return nil, xerrors.Errorf("no byte tree file in %s", root)
	}

	var mu sync.Mutex
	files := make(map[string][]byte, len(paths))
	sem := make(chan struct{}, maxParallelReads)
	eg, ctx := errgroup.WithContext(ctx)
	for name, path := range paths {
		name, path := name, path
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			buf, err := ioutil.ReadFile(path)
			if err != nil {
				return xerrors.Errorf("reading %s: %w", path, err)
			}
			mu.Lock()
			files[name] = buf
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ds := New(files)
	ds.Root = root
	log.Lvl2("Loaded", len(files), "files of", len(ds.parties), "mix parties from", root)
	return ds, nil
}

// Write stores the dataset below dir/dir/nizkp/default, party files going to the proofs sub-directory
func (ds *Dataset) Write(dir string) error {
	root := filepath.Join(dir, ProofDir)
	if err := os.MkdirAll(filepath.Join(root, ProofsSubDir), 0755); err != nil {
		return err
	}
	for name, buf := range ds.files {
		path := filepath.Join(root, name)
		if ds.isPartyFile(name) {
			path = filepath.Join(root, ProofsSubDir, name)
		}
		if err := ioutil.WriteFile(path, buf, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (ds *Dataset) isPartyFile(name string) bool {
	switch name {
	case PublicKeyFile, CiphertextsFile, ShuffledCiphertextsFile:
		return false
	}
	return true
}

// Access
//______________________________________________________________________________________________________________________

// Names lists the files of the dataset
func (ds *Dataset) Names() []string {
	names := make([]string, 0, len(ds.files))
	for name := range ds.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// File returns the content of a file
func (ds *Dataset) File(name string) ([]byte, bool) {
	buf, ok := ds.files[name]
	return buf, ok
}

// Parties lists the indices of the mix parties that left proof files
func (ds *Dataset) Parties() []int {
	return append([]int(nil), ds.parties...)
}

// LastParty is the highest party index, 0 without parties
func (ds *Dataset) LastParty() int {
	if len(ds.parties) == 0 {
		return 0
	}
	return ds.parties[len(ds.parties)-1]
}

// PartyFiles returns the artifacts of the proof of party l: its input list is Ciphertexts.bt for the first party
// and the output of party l-1 otherwise; its output list is ShuffledCiphertexts.bt for the last party and
// CiphertextsXX.bt otherwise. Absent files are left out of the map.
func (ds *Dataset) PartyFiles(l int) map[libvmntranscript.Role][]byte {
	roles := make(map[libvmntranscript.Role][]byte)
	add := func(role libvmntranscript.Role, names ...string) {
		for _, name := range names {
			if buf, ok := ds.files[name]; ok {
				roles[role] = buf
				return
			}
		}
	}

	add(libvmntranscript.PublicKey, PublicKeyFile)
	if l <= 1 {
		add(libvmntranscript.Ciphertexts, CiphertextsFile)
	} else {
		add(libvmntranscript.Ciphertexts, PartyFileName(CiphertextsPrefix, l-1))
	}
	if l >= ds.LastParty() {
		add(libvmntranscript.ShuffledCiphertexts, ShuffledCiphertextsFile, PartyFileName(CiphertextsPrefix, l))
	} else {
		add(libvmntranscript.ShuffledCiphertexts, PartyFileName(CiphertextsPrefix, l))
	}
	add(libvmntranscript.PermutationCommitment, PartyFileName(PermutationCommitmentPrefix, l))
	add(libvmntranscript.ProofCommitment, PartyFileName(ProofCommitmentPrefix, l))
	add(libvmntranscript.ProofResponse, PartyFileName(ProofResponsePrefix, l))
	add(libvmntranscript.Challenges, PartyFileName(ChallengesPrefix, l))
	return roles
}

// FromRoles creates the dataset of a single proof, as if written by party 1
func FromRoles(files map[libvmntranscript.Role][]byte) *Dataset {
	names := map[libvmntranscript.Role]string{
		libvmntranscript.PublicKey:             PublicKeyFile,
		libvmntranscript.Ciphertexts:           CiphertextsFile,
		libvmntranscript.ShuffledCiphertexts:   ShuffledCiphertextsFile,
		libvmntranscript.PermutationCommitment: PartyFileName(PermutationCommitmentPrefix, 1),
		libvmntranscript.ProofCommitment:       PartyFileName(ProofCommitmentPrefix, 1),
		libvmntranscript.ProofResponse:         PartyFileName(ProofResponsePrefix, 1),
		libvmntranscript.Challenges:            PartyFileName(ChallengesPrefix, 1),
	}
	byName := make(map[string][]byte, len(files))
	for role, buf := range files {
		byName[names[role]] = buf
	}
	return New(byName)
}
