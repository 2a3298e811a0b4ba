package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/boa-sdk-go/pkg/api"
	"github.com/suffix-labs/boa-sdk-go/pkg/crypto"
	"github.com/suffix-labs/boa-sdk-go/pkg/fee"
	"github.com/suffix-labs/boa-sdk-go/pkg/hash"
	"github.com/suffix-labs/boa-sdk-go/pkg/roles"
	"github.com/suffix-labs/boa-sdk-go/pkg/tx"
	"github.com/suffix-labs/boa-sdk-go/pkg/utxo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the 64-byte digest of the argument",
		ArgsUsage: "<data>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "hex", Usage: "the argument is hex-encoded"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument, got %d", c.NArg())
			}

			data := []byte(c.Args().First())
			if c.Bool("hex") {
				decoded, err := hex.DecodeString(strings.TrimPrefix(string(data), "0x"))
				if err != nil {
					return fmt.Errorf("invalid hex: %w", err)
				}
				data = decoded
			}

			fmt.Fprintln(c.App.Writer, hash.Sum(data))
			return nil
		},
	}
}

func utxoKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "utxo-key",
		Usage: "Derive the key of a transaction output",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tx", Usage: "transaction hash", Required: true},
			&cli.Uint64Flag{Name: "index", Usage: "output index"},
		},
		Action: func(c *cli.Context) error {
			txHash, err := hash.FromString(c.String("tx"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash.MakeUTXOKey(txHash, c.Uint64("index")))
			return nil
		},
	}
}

func feeCommand() *cli.Command {
	return &cli.Command{
		Name:      "fee",
		Usage:     "Print the fee for storing a payload of the given size",
		ArgsUsage: "<size>",
		Action: func(c *cli.Context) error {
			size, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid size: %w", err)
			}
			amount, err := fee.PayloadFee(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, amount)
			return nil
		},
	}
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a new key pair",
		Action: func(c *cli.Context) error {
			kp, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "address: %s\nsecret:  %s\n", kp.Address, kp.Secret.WIF())
			return nil
		},
	}
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Print the address of a WIF secret key",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "wif", Usage: "secret key", Required: true, EnvVars: []string{"BOA_WIF"}},
		},
		Action: func(c *cli.Context) error {
			secret, err := crypto.ParseSecretKeyWIF(c.String("wif"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, secret.PublicKey())
			return nil
		},
	}
}

func payCommand() *cli.Command {
	return &cli.Command{
		Name:  "pay",
		Usage: "Build and sign a payment, printing its JSON form",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "wif", Usage: "owner secret key", Required: true, EnvVars: []string{"BOA_WIF"}},
			&cli.StringFlag{Name: "utxos", Usage: "JSON file with the owner's UTXOs", Required: true},
			&cli.StringSliceFlag{Name: "to", Usage: "recipient as <address>:<amount>"},
			&cli.StringFlag{Name: "uri", Usage: "boa: payment request to pay instead of --to"},
			&cli.StringFlag{Name: "payload", Usage: "hex payload to store"},
			&cli.Uint64Flag{Name: "fee-rate", Usage: "fee per byte", Value: api.DefaultFeeRate},
			&cli.Uint64Flag{Name: "height", Usage: "current block height"},
			&cli.Uint64Flag{Name: "lock-height", Usage: "lock height of the transaction"},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.App.ErrWriter, c.String("log-level"))
			if err != nil {
				return err
			}

			secret, err := crypto.ParseSecretKeyWIF(c.String("wif"))
			if err != nil {
				return err
			}
			owner := crypto.NewKeyPair(secret)

			utxos, err := readUTXOs(c.String("utxos"))
			if err != nil {
				return err
			}

			var txn *tx.Transaction
			if raw := c.String("uri"); raw != "" {
				req, err := api.ParsePaymentRequest(raw)
				if err != nil {
					return err
				}
				txn, err = api.PayRequest(req, owner, utxos, c.Uint64("height"), c.Uint64("fee-rate"), api.WithLogger(logger))
				if err != nil {
					return err
				}
			} else {
				params := api.PaymentParams{
					Owner:      owner,
					UTXOs:      utxos,
					Height:     c.Uint64("height"),
					FeeRate:    c.Uint64("fee-rate"),
					LockHeight: c.Uint64("lock-height"),
				}
				for _, spec := range c.StringSlice("to") {
					r, err := parseRecipient(spec)
					if err != nil {
						return err
					}
					params.Recipients = append(params.Recipients, r)
				}
				if p := c.String("payload"); p != "" {
					params.Payload, err = hex.DecodeString(strings.TrimPrefix(p, "0x"))
					if err != nil {
						return fmt.Errorf("invalid payload: %w", err)
					}
				}

				txn, err = api.CreatePayment(params, api.WithLogger(logger))
				if err != nil {
					return err
				}
			}

			logger.Info().Stringer("hash", txn.Hash()).Msg("payment created")
			return writeJSON(c, txn)
		},
	}
}

func cancelCommand() *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Build a fee-bumped replacement refunding a pending transaction",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "wif", Usage: "secret key owning inputs (repeatable)", Required: true},
			&cli.StringFlag{Name: "utxos", Usage: "JSON file with the UTXOs spent by the transaction", Required: true},
			&cli.StringFlag{Name: "tx", Usage: "JSON file with the pending transaction", Required: true},
			&cli.Uint64Flag{Name: "threshold", Usage: "fee rate increase in percent", Value: 20},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(c.App.ErrWriter, c.String("log-level"))
			if err != nil {
				return err
			}

			var keys []crypto.KeyPair
			for _, wif := range c.StringSlice("wif") {
				secret, err := crypto.ParseSecretKeyWIF(wif)
				if err != nil {
					return err
				}
				keys = append(keys, crypto.NewKeyPair(secret))
			}

			utxos, err := readUTXOs(c.String("utxos"))
			if err != nil {
				return err
			}

			data, err := os.ReadFile(c.String("tx"))
			if err != nil {
				return fmt.Errorf("failed to read transaction: %w", err)
			}
			original, err := tx.FromJSON(data)
			if err != nil {
				return err
			}

			result, err := api.CancelTransaction(original, utxos, keys, c.Uint64("threshold"), api.WithLogger(logger))
			if err != nil {
				return err
			}

			logCancel(logger, result.Code)
			return writeJSON(c, struct {
				Code string          `json:"code"`
				Tx   *tx.Transaction `json:"tx,omitempty"`
			}{Code: result.Code.String(), Tx: result.Tx})
		},
	}
}

func logCancel(logger zerolog.Logger, code roles.CancelResultCode) {
	if code == roles.CancelSuccess {
		logger.Info().Msg("cancellation created")
		return
	}
	logger.Warn().Stringer("code", code).Msg("transaction cannot be cancelled")
}

func readUTXOs(path string) ([]utxo.UnspentTxOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read UTXOs: %w", err)
	}
	return utxo.ParseList(data)
}

// parseRecipient parses "<address>:<amount>".
func parseRecipient(spec string) (api.Recipient, error) {
	addr, amountStr, found := strings.Cut(spec, ":")
	if !found {
		return api.Recipient{}, fmt.Errorf("invalid recipient %q: expected <address>:<amount>", spec)
	}

	pk, err := crypto.PublicKeyFromString(addr)
	if err != nil {
		return api.Recipient{}, err
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return api.Recipient{}, fmt.Errorf("invalid amount in %q: %w", spec, err)
	}
	return api.Recipient{Address: pk, Amount: amount}, nil
}

func writeJSON(c *cli.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
