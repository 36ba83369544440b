package libvmnreport_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ldsec/vmnverify/lib/dataset"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/report"
	"github.com/ldsec/vmnverify/lib/shuffle"
	"github.com/ldsec/vmnverify/lib/transcript"
	"github.com/ldsec/vmnverify/lib/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func chainReport(t *testing.T, tamper bool) *libvmnverifier.ChainReport {
	pp, err := libvmnshuffle.TestParameters(libvmnparams.Supplied, 1)
	require.NoError(t, err)
	chain, err := libvmnshuffle.NewMixChain(pp, 3, 2, random.New())
	require.NoError(t, err)
	v, err := libvmnverifier.NewVerifier(pp)
	require.NoError(t, err)

	files := chain.Files()
	if tamper {
		// the response of party 1 for the proof of party 2
		files["PoSReply02.bt"] = files["PoSReply01.bt"]
		delete(files, "Challenges01.bt")
	}
	return v.VerifyChain(libvmndataset.New(files), nil)
}

func TestParseFormat(t *testing.T) {
	f, err := libvmnreport.ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, libvmnreport.Markdown, f)
	f, err = libvmnreport.ParseFormat("txt")
	require.NoError(t, err)
	assert.Equal(t, libvmnreport.Text, f)
	_, err = libvmnreport.ParseFormat("html")
	assert.Error(t, err)
	assert.Error(t, libvmnreport.Render(&bytes.Buffer{}, &libvmnverifier.ChainReport{}, "html"))
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libvmnreport.Render(&buf, chainReport(t, false), libvmnreport.Markdown))
	out := buf.String()
	assert.Contains(t, out, "# Verification of session `TestSession.default`")
	assert.Contains(t, out, "**Verdict: ACCEPT**")
	assert.Contains(t, out, `- **A**: $A^v A' = g^{k_A} \prod_i h_i^{k_{E,i}}$`)
	assert.Contains(t, out, "## Party 2")
	assert.Contains(t, out, "| F | Valid |  |")
	assert.NotContains(t, out, "residues")

	buf.Reset()
	require.NoError(t, libvmnreport.Render(&buf, chainReport(t, true), libvmnreport.Markdown))
	out = buf.String()
	assert.Contains(t, out, "**Verdict: REJECT**")
	assert.Contains(t, out, "| A | Undefined | MissingArtifact: challenge: missing artifact "+string(libvmntranscript.Challenges)+" |")
	assert.Contains(t, out, "Check A residues:")
	assert.Contains(t, out, "failing")
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, libvmnreport.Render(&buf, chainReport(t, true), libvmnreport.Text))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "Session TestSession.default: REJECT", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "party 1"))
	assert.Contains(t, lines[1], "Undefined")
	assert.Contains(t, lines[7], "party 2")
	assert.Contains(t, lines[7], "Invalid")

	buf.Reset()
	require.NoError(t, libvmnreport.Render(&buf, &libvmnverifier.ChainReport{Session: "s"}, libvmnreport.Text))
	assert.Equal(t, "Session s: INCOMPLETE\n", buf.String())
}
