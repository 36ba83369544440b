// Package libvmnreport renders verification reports as Markdown, with the equation of every check in LaTeX, or as
// plain text.
package libvmnreport

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ldsec/vmnverify/lib/checks"
	"github.com/ldsec/vmnverify/lib/verifier"
	"golang.org/x/xerrors"
)

// Format is an output format
type Format string

// Output formats
const (
	Markdown Format = "md"
	Text     Format = "text"
)

// ParseFormat parses "md" (also "markdown") or "text" (also "txt")
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "md", "markdown":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	}
	return "", xerrors.Errorf("unknown report format %q", s)
}

// Render writes the report of a session in the given format
func Render(w io.Writer, chain *libvmnverifier.ChainReport, format Format) error {
	switch format {
	case Markdown:
		return renderMarkdown(w, chain)
	case Text:
		return renderText(w, chain)
	}
	return xerrors.Errorf("unknown report format %q", format)
}

func verdict(status libvmnchecks.Status) string {
	switch status {
	case libvmnchecks.Valid:
		return "ACCEPT"
	case libvmnchecks.Invalid:
		return "REJECT"
	}
	return "INCOMPLETE"
}

func detail(res *libvmnchecks.Result) string {
	switch res.Status {
	case libvmnchecks.Valid:
		return ""
	case libvmnchecks.Invalid:
		if res.Index >= 0 {
			return fmt.Sprintf("%s at index %d (%d failing): %s", res.Kind(), res.Index, res.Failures, res.Reason())
		}
	}
	return fmt.Sprintf("%s: %s", res.Kind(), res.Reason())
}

// Markdown
//______________________________________________________________________________________________________________________

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}

func renderMarkdown(w io.Writer, chain *libvmnverifier.ChainReport) error {
	ew := &errWriter{w: w}
	ew.printf("# Verification of session `%s`\n\n", chain.Session)
	ew.printf("**Verdict: %s** (%s, %d mix parties)\n\n", verdict(chain.Status()), chain.Status(), len(chain.Reports))

	ew.printf("## Equations\n\n")
	for _, def := range libvmnchecks.Definitions {
		ew.printf("- **%s**: $%s$\n", def.Label, def.Equation)
	}
	ew.printf("\n")

	for _, r := range chain.Reports {
		ew.printf("## Party %d\n\n", r.Party)
		ew.printf("- report: `%s`\n", r.ID)
		ew.printf("- ciphertexts: %d\n", r.Size)
		ew.printf("- challenges: %s", r.Mode)
		if r.Challenge != "" {
			ew.printf(", $v$ = `%s`", r.Challenge)
		}
		ew.printf("\n\n")

		ew.printf("| Check | Status | Detail |\n|---|---|---|\n")
		for _, res := range r.Results {
			ew.printf("| %s | %s | %s |\n", res.Label, res.Status, strings.ReplaceAll(detail(res), "|", `\|`))
		}
		ew.printf("\n")

		for _, res := range r.Results {
			if len(res.LHS) == 0 {
				continue
			}
			ew.printf("Check %s residues:\n\n```\nLHS = %s\nRHS = %s\n```\n\n", res.Label, strings.Join(res.LHS, ", "), strings.Join(res.RHS, ", "))
		}
	}
	return ew.err
}

// Text
//______________________________________________________________________________________________________________________

func renderText(w io.Writer, chain *libvmnverifier.ChainReport) error {
	ew := &errWriter{w: w}
	ew.printf("Session %s: %s\n", chain.Session, verdict(chain.Status()))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	tew := &errWriter{w: tw}
	for _, r := range chain.Reports {
		tew.printf("party %d\tN=%d\t%s\t%s\n", r.Party, r.Size, r.Status(), r.ID)
		for _, res := range r.Results {
			tew.printf("  %s\t%s\t%s\n", res.Label, res.Status, detail(res))
		}
	}
	if ew.err != nil {
		return ew.err
	}
	if tew.err != nil {
		return tew.err
	}
	return tw.Flush()
}
