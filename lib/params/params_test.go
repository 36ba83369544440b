package libvmnparams_test

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupConfig = `
[group]
p = "0xaadd62ffa82074a2fb7950b61a0f134bd83250ddf12227d3c9978ad622f65a93"
q = "0x556eb17fd4103a517dbca85b0d0789a5ec19286ef89113e9e4cbc56b117b2d49"
g = "4"
`

func TestDecode(t *testing.T) {
	config := `
sid = "Election2026"
width = 2
vbitlenro = 128
ebitlenro = 128
rohash = "SHA3-256"
challenge = "supplied"
` + groupConfig

	pp, err := libvmnparams.Decode(config, ".")
	require.NoError(t, err)
	assert.Equal(t, "Election2026.default", pp.Info.SessionID())
	assert.Equal(t, 2, pp.Info.Width)
	assert.Equal(t, 100, pp.Info.RBitLen)
	assert.Equal(t, "SHA-256", pp.Info.PRG)
	assert.Equal(t, "SHA3-256", pp.Info.ROHash)
	assert.Equal(t, libvmnparams.Supplied, pp.Mode)
	assert.Equal(t, 256, pp.Group.P().BitLen())
	assert.Nil(t, pp.Generators)
	assert.Contains(t, pp.String(), "supplied")
}

func TestDecodeInvalid(t *testing.T) {
	cases := map[string]string{
		"batching too long":  "ebitlenro = 255\nvbitlenro = 128\n",
		"challenge too long": "ebitlenro = 128\nvbitlenro = 300\n",
		"zero width":         "ebitlenro = 128\nvbitlenro = 128\nwidth = 0\n",
		"unknown hash":       "ebitlenro = 128\nvbitlenro = 128\nprg = \"MD5\"\n",
		"unknown mode":       "ebitlenro = 128\nvbitlenro = 128\nchallenge = \"oracle\"\n",
		"empty sid":          "ebitlenro = 128\nvbitlenro = 128\nsid = \"\"\n",
		"not toml":           "ebitlenro = = 128\n",
	}
	for name, config := range cases {
		_, err := libvmnparams.Decode(config+groupConfig, ".")
		assert.True(t, errors.Is(err, libvmnparams.ErrInvalidParameters), name)
	}

	_, err := libvmnparams.Decode("ebitlenro = 128\nvbitlenro = 128\n[group]\np = \"23\"\nq = \"11\"\ng = \"5\"\n", ".")
	assert.True(t, errors.Is(err, libvmnarithm.ErrInvalidGroup))

	_, err = libvmnparams.Decode("[group]\np = \"x\"\n", ".")
	assert.True(t, errors.Is(err, libvmnparams.ErrInvalidParameters))
}

func TestLoadToml(t *testing.T) {
	dir := t.TempDir()

	pp, err := libvmnparams.Decode("ebitlenro = 128\nvbitlenro = 128\n"+groupConfig, ".")
	require.NoError(t, err)
	G := pp.Group

	generators := []*libvmnarithm.Element{G.Generator(), G.Generator().Mul(G.Generator())}
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "Generators.bt"), libvmnbytetree.Encode(G.ElementsToByteTree(generators)), 0644))

	// group given as a marshalled Verificatum group
	pgroup := "ModPGroup(safe-prime modulus)::" + libvmnbytetree.EncodeHex(G.Marshal())
	config := fmt.Sprintf("ebitlenro = 128\nvbitlenro = 128\n[group]\npgroup = %q\ngenerators = \"Generators.bt\"\n", pgroup)
	path := filepath.Join(dir, "params.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(config), 0644))

	loaded, err := libvmnparams.LoadToml(path)
	require.NoError(t, err)
	assert.True(t, G.Equal(loaded.Group))
	require.Len(t, loaded.Generators, 2)
	assert.True(t, loaded.Generators[1].Equal(generators[1]))

	_, err = libvmnparams.LoadToml(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	// non-member generator
	bad := libvmnbytetree.NewTree(libvmnbytetree.MinimalBigIntToLeaf(G.P()))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "Generators.bt"), libvmnbytetree.Encode(bad), 0644))
	_, err = libvmnparams.LoadToml(path)
	assert.True(t, errors.Is(err, libvmnarithm.ErrOutOfRange))
}

func TestChallengeMode(t *testing.T) {
	mode, err := libvmnparams.ParseChallengeMode("")
	require.NoError(t, err)
	assert.Equal(t, libvmnparams.FiatShamir, mode)

	mode, err = libvmnparams.ParseChallengeMode("Interactive")
	require.NoError(t, err)
	assert.Equal(t, libvmnparams.Supplied, mode)
	assert.Equal(t, "supplied", mode.String())
}

func TestHashFunction(t *testing.T) {
	for _, name := range libvmnparams.HashFunctionNames() {
		h, err := libvmnparams.HashFunction(name)
		require.NoError(t, err)
		assert.NotZero(t, h().Size())
	}
	_, err := libvmnparams.HashFunction("SHA-1")
	assert.Error(t, err)
}
