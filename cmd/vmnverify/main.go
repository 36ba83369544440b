package main

import (
	"os"

	"github.com/urfave/cli"
	"go.dedis.ch/onet/v3/log"
)

const (
	// BinaryName is the name of the verifier app
	BinaryName = "vmnverify"

	// Version of the binary
	Version = "1.00"

	// DefaultConfigFile is the name of the default public parameters file
	DefaultConfigFile = "params.toml"

	optionConfig      = "config"
	optionConfigShort = "c"

	optionDataset      = "dataset"
	optionDatasetShort = "d"

	optionFormat      = "format"
	optionFormatShort = "f"

	optionOutput      = "output"
	optionOutputShort = "o"

	optionHex = "hex"
)

func newApp() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = BinaryName
	cliApp.Usage = "Verify the proofs of shuffle of a Verificatum mix-net session"
	cliApp.Version = Version

	binaryFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "debug, d",
			Value: 0,
			Usage: "debug-level: 1 for terse, 5 for maximal",
		},
	}

	verifyFlags := []cli.Flag{
		cli.StringFlag{
			Name:  optionConfig + ", " + optionConfigShort,
			Value: DefaultConfigFile,
			Usage: "Public parameters of the session (TOML)",
		},
		cli.StringFlag{
			Name:  optionDataset + ", " + optionDatasetShort,
			Usage: "Directory holding the byte tree files of the session",
		},
		cli.StringFlag{
			Name:  optionFormat + ", " + optionFormatShort,
			Value: "text",
			Usage: "Report format: md or text",
		},
		cli.StringFlag{
			Name:  optionOutput + ", " + optionOutputShort,
			Usage: "Report file (default: standard output)",
		},
	}

	inspectFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  optionHex,
			Usage: "The file holds a hexadecimal byte tree",
		},
	}

	cliApp.Commands = []cli.Command{
		{
			Name:      "verify",
			Aliases:   []string{"v"},
			Usage:     "Verify every proof of shuffle of a session",
			Action:    runVerify,
			Flags:     verifyFlags,
			ArgsUsage: " ",
		},
		{
			Name:      "inspect",
			Aliases:   []string{"i"},
			Usage:     "Print the structure of a byte tree file",
			Action:    runInspect,
			Flags:     inspectFlags,
			ArgsUsage: "FILE",
		},
	}

	cliApp.Flags = binaryFlags
	cliApp.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.GlobalInt("debug"))
		return nil
	}
	return cliApp
}

func main() {
	err := newApp().Run(os.Args)
	log.ErrFatal(err)
}
