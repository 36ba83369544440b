// Package libvmnshuffle is an honest mix server: it re-encrypts and permutes a list of ciphertexts and proves it
// with the proof of shuffle checked by the verifier. It is used to produce valid transcripts in tests and never by
// the verifier itself.
package libvmnshuffle

import (
	"crypto/cipher"
	"math/big"

	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/arithm"
	"go.dedis.ch/kyber/v3/util/random"
)

// RandomPermutation picks a uniform permutation of [0, k) by random swaps
func RandomPermutation(k int, rand cipher.Stream) []int {
	pi := make([]int, k)
	for i := 0; i < k; i++ {
		// Initialize a trivial permutation
		pi[i] = i
	}
	for i := k - 1; i > 0; i-- {
		// Shuffle by random swaps
		j := int(random.Int(big.NewInt(int64(i+1)), rand).Int64())
		if j != i {
			pi[i], pi[j] = pi[j], pi[i]
		}
	}
	return pi
}

// RandomScalar picks a uniform scalar
func RandomScalar(F *libvmnarithm.Field, rand cipher.Stream) *libvmnarithm.Scalar {
	return F.Reduce(random.Int(F.Order(), rand))
}

// RandomScalarSlice picks n uniform scalars
func RandomScalarSlice(F *libvmnarithm.Field, n int, rand cipher.Stream) []*libvmnarithm.Scalar {
	res := make([]*libvmnarithm.Scalar, n)
	for i := range res {
		res[i] = RandomScalar(F, rand)
	}
	return res
}

// RandomCiphertexts encrypts n random plaintexts of width w
func RandomCiphertexts(G *libvmnarithm.ModPGroup, pk *libvmnarithm.PublicKey, n, w int, rand cipher.Stream) (libvmnarithm.CipherVector, error) {
	cv := make(libvmnarithm.CipherVector, n)
	for i := range cv {
		m := make([]*libvmnarithm.Element, w)
		for j := range m {
			m[j] = G.Generator().Exp(RandomScalar(G.Field(), rand))
		}
		c, err := pk.Encrypt(m, RandomScalarSlice(G.Field(), w, rand))
		if err != nil {
			return nil, err
		}
		cv[i] = c
	}
	return cv, nil
}

// ShuffleSequence re-encrypts and permutes inputList: the output at position pi[i] is inputList[i] * Enc(1, s[i])
func ShuffleSequence(G *libvmnarithm.ModPGroup, pk *libvmnarithm.PublicKey, inputList libvmnarithm.CipherVector, rand cipher.Stream) (libvmnarithm.CipherVector, []int, [][]*libvmnarithm.Scalar, error) {
	k := len(inputList)
	w, err := inputList.Width()
	if err != nil {
		return nil, nil, nil, err
	}

	// Pick a fresh ElGamal blinding factor for each ciphertext
	s := make([][]*libvmnarithm.Scalar, k)
	for i := range s {
		s[i] = RandomScalarSlice(G.Field(), w, rand)
	}

	// Pick a random permutation
	pi := RandomPermutation(k, rand)

	outputList := make(libvmnarithm.CipherVector, k)
	wg := libvmn.StartParallelizeWithInt(k)
	for i := 0; i < k; i++ {
		if libvmn.PARALLELIZE {
			go func(i int) {
				wg.Done(rerandomize(pk, inputList, outputList, pi, s, i))
			}(i)
		} else {
			wg.Done(rerandomize(pk, inputList, outputList, pi, s, i))
		}
	}
	if err := libvmn.EndParallelize(wg); err != nil {
		return nil, nil, nil, err
	}
	return outputList, pi, s, nil
}

func rerandomize(pk *libvmnarithm.PublicKey, inputList, outputList libvmnarithm.CipherVector, pi []int, s [][]*libvmnarithm.Scalar, i int) error {
	c, err := inputList[i].Mul(pk.EncryptOne(s[i]))
	if err != nil {
		return err
	}
	outputList[pi[i]] = c
	return nil
}
