package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"gozksync/zktx"
)

func main() {
	app := cli.NewApp()
	app.Name = "zk_decode_tx"
	app.Usage = "Decode a raw Era transaction"
	app.ArgsUsage = "[0x-prefixed raw transaction, read from stdin when absent]"
	app.Action = decode

	if err := app.Run(os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func readRaw(cliCtx *cli.Context) (string, error) {
	if cliCtx.NArg() > 0 {
		return cliCtx.Args().First(), nil
	}
	b, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(cliCtx *cli.Context) error {
	s, err := readRaw(cliCtx)
	if err != nil {
		return err
	}
	raw, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	return describe(os.Stdout, raw)
}

// describe prints the fields of the raw transaction to w.
func describe(w io.Writer, raw []byte) error {
	env, err := zktx.DecodeTxEnvelope(raw)
	if err != nil {
		return err
	}

	tx := env.Unsigned()
	fmt.Fprintf(w, "Type:      %s\n", env.Type())
	fmt.Fprintf(w, "Hash:      %s\n", env.Hash())
	if chainID := tx.ChainID(); chainID != nil {
		fmt.Fprintf(w, "Chain ID:  %s\n", chainID)
	}
	fmt.Fprintf(w, "Nonce:     %d\n", tx.Nonce())
	fmt.Fprintf(w, "Gas:       %d\n", tx.Gas())
	fmt.Fprintf(w, "Fee cap:   %s\n", tx.GasFeeCap())
	fmt.Fprintf(w, "Tip cap:   %s\n", tx.GasTipCap())
	if to := tx.To(); to != nil {
		fmt.Fprintf(w, "To:        %s\n", to)
	} else {
		fmt.Fprintln(w, "To:        (contract creation)")
	}
	fmt.Fprintf(w, "Value:     %s\n", tx.Value())
	fmt.Fprintf(w, "Data:      %d bytes\n", len(tx.Data()))

	signed, ok := env.Eip712()
	if !ok {
		if sender, err := env.Sender(); err == nil {
			fmt.Fprintf(w, "Sender:    %s\n", sender)
		} else {
			fmt.Fprintf(w, "Sender:    unrecoverable (%v)\n", err)
		}
		return nil
	}

	// The explicit sender and the signer differ for account-abstraction senders, which
	// authorize through the custom signature instead.
	fmt.Fprintf(w, "From:      %s\n", signed.From())
	if signer, err := signed.Sender(); err != nil {
		fmt.Fprintf(w, "Signer:    unrecoverable (%v)\n", err)
	} else if signer != signed.From() {
		fmt.Fprintf(w, "Signer:    %s (does not match From)\n", signer)
	} else {
		fmt.Fprintf(w, "Signer:    %s\n", signer)
	}

	meta := signed.Tx().Meta
	fmt.Fprintf(w, "Gas per pubdata: %s\n", signed.GasPerPubdata())
	if meta.Paymaster != nil {
		fmt.Fprintf(w, "Paymaster: %s (input %d bytes)\n", meta.Paymaster.Paymaster, len(meta.Paymaster.Input))
	}
	if len(meta.CustomSignature) > 0 {
		fmt.Fprintf(w, "Custom signature: %s\n", hexutil.Encode(meta.CustomSignature))
	}
	hashes, err := meta.FactoryDepsHashes()
	if err != nil {
		return err
	}
	for i, h := range hashes {
		fmt.Fprintf(w, "Factory dep %d: %s (%d bytes)\n", i, h, len(meta.FactoryDeps[i]))
	}
	return nil
}
