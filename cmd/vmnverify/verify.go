package main

import (
	"bufio"
	"context"
	"os"

	"github.com/ldsec/vmnverify/lib/checks"
	"github.com/ldsec/vmnverify/lib/dataset"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/report"
	"github.com/ldsec/vmnverify/lib/verifier"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func runVerify(c *cli.Context) error {
	if c.String(optionDataset) == "" {
		return xerrors.New("no dataset directory given")
	}
	format, err := libvmnreport.ParseFormat(c.String(optionFormat))
	if err != nil {
		return err
	}

	pp, err := libvmnparams.LoadToml(c.String(optionConfig))
	if err != nil {
		return xerrors.Errorf("could not load public parameters: %w", err)
	}
	log.Lvl1("Public parameters:", pp)

	ds, err := libvmndataset.Load(context.Background(), c.String(optionDataset))
	if err != nil {
		return xerrors.Errorf("could not load dataset: %w", err)
	}

	v, err := libvmnverifier.NewVerifier(pp)
	if err != nil {
		return err
	}

	parties := len(ds.Parties())
	if parties == 0 {
		parties = 1
	}
	bar := progressbar.NewOptions(parties,
		progressbar.OptionSetDescription("Verifying proofs"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	chain := v.VerifyChain(ds, func(int) { _ = bar.Add(1) })
	_ = bar.Finish()

	if err := writeReport(c.String(optionOutput), chain, format); err != nil {
		return xerrors.Errorf("could not write report: %w", err)
	}

	if status := chain.Status(); status != libvmnchecks.Valid {
		return xerrors.Errorf("session %s is %s", chain.Session, status)
	}
	return nil
}

// writeReport renders the report to path, or to the standard output if path is empty
func writeReport(path string, chain *libvmnverifier.ChainReport, format libvmnreport.Format) (err error) {
	if path == "" {
		return libvmnreport.Render(os.Stdout, chain, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	out := bufio.NewWriter(f)
	if err := libvmnreport.Render(out, chain, format); err != nil {
		return err
	}
	return out.Flush()
}
