package main

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
)

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("expected exactly one byte tree file")
	}
	path := c.Args().First()
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	var tree *libvmnbytetree.Node
	if c.Bool(optionHex) {
		tree, err = libvmnbytetree.DecodeHex(strings.TrimSpace(string(buf)))
	} else {
		tree, err = libvmnbytetree.Decode(buf)
	}
	if err != nil {
		return xerrors.Errorf("%s: %w", path, err)
	}
	return tree.Format(os.Stdout)
}
