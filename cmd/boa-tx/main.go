// boa-tx CLI - BOA transaction builder
//
// The CLI exposes the SDK's offline operations: hashing, fee calculation,
// key handling, payments and cancellations. UTXO sets are read from JSON
// files in the format returned by a node.
//
// Example usage:
//
//	# Hash data and derive a UTXO key
//	boa-tx hash "abc"
//	boa-tx utxo-key --tx 0x5d7f…0d73 --index 1
//
//	# Price a payload
//	boa-tx fee 512
//
//	# Pay from a WIF key
//	boa-tx pay --wif <key> --utxos utxos.json --to boa1…:1000000
//
//	# Cancel a pending transaction
//	boa-tx cancel --wif <key> --utxos utxos.json --tx pending.json
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "boa-tx",
		Usage:   "Build, price, sign and cancel BOA transactions",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"BOA_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			hashCommand(),
			utxoKeyCommand(),
			feeCommand(),
			keygenCommand(),
			addressCommand(),
			payCommand(),
			cancelCommand(),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "boa-tx version %s\n", Version)
					return nil
				},
			},
		},
	}
}
