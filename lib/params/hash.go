package libvmnparams

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"sort"

	"golang.org/x/crypto/sha3"
	"golang.org/x/xerrors"
)

// hashFunctions lists the hash functions a session may name for its PRG and random oracles
var hashFunctions = map[string]func() hash.Hash{
	"SHA-256":  sha256.New,
	"SHA-384":  sha512.New384,
	"SHA-512":  sha512.New,
	"SHA3-256": sha3.New256,
	"SHA3-512": sha3.New512,
}

// HashFunction returns the constructor of the hash function called name
func HashFunction(name string) (func() hash.Hash, error) {
	h, ok := hashFunctions[name]
	if !ok {
		return nil, xerrors.Errorf("unknown hash function %q (supported: %v)", name, HashFunctionNames())
	}
	return h, nil
}

// HashFunctionNames lists the supported hash functions
func HashFunctionNames() []string {
	names := make([]string, 0, len(hashFunctions))
	for name := range hashFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
