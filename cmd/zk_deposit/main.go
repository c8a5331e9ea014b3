package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/eth"
	"github.com/ethereum-optimism/optimism/op-service/txmgr"
	txmetrics "github.com/ethereum-optimism/optimism/op-service/txmgr/metrics"
	"github.com/ethereum/go-ethereum/common"
	gethclient "github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"gozksync/ethclient"
	"gozksync/zkbridge"
	"gozksync/zkwallet"
)

var (
	L1RPC = &cli.StringFlag{
		Name:     "l1-rpc",
		Usage:    "L1 JSON-RPC endpoint",
		EnvVars:  []string{"ZK_L1_RPC"},
		Required: true,
	}
	L2RPC = &cli.StringFlag{
		Name:     "l2-rpc",
		Usage:    "L2 JSON-RPC endpoint",
		EnvVars:  []string{"ZK_L2_RPC"},
		Required: true,
	}
	PrivateKey = &cli.StringFlag{
		Name:     "private-key",
		Usage:    "Hex private key of the L1 sender",
		EnvVars:  []string{"ZK_PRIVATE_KEY"},
		Required: true,
	}
	Amount = &cli.StringFlag{
		Name:     "amount",
		Usage:    "Amount to deposit, in the token's base unit",
		Required: true,
	}
	Token = &cli.StringFlag{
		Name:  "token",
		Usage: "L1 token address; ETH when unset",
	}
	Receiver = &cli.StringFlag{
		Name:  "receiver",
		Usage: "L2 receiver; the sender when unset",
	}
	Bridge = &cli.StringFlag{
		Name:  "bridge",
		Usage: "L1 bridge address; the shared default bridge when unset",
	}
	AutoApproval = &cli.BoolFlag{
		Name:  "auto-approval",
		Usage: "Approve the bridge for missing token allowance",
		Value: true,
	}
	MinTipGwei = &cli.Float64Flag{
		Name:  "min-tip-gwei",
		Usage: "Floor for the L1 priority fee, in gwei",
	}
	Wait = &cli.BoolFlag{
		Name:  "wait",
		Usage: "Wait for the L2 transaction to be included",
	}
	Timeout = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Give up after this long",
		Value: 10 * time.Minute,
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Usage:   "Log level: trace, debug, info, warn, error, crit",
		EnvVars: []string{"ZK_LOG_LEVEL"},
		Value:   "info",
	}
	MetricsAddr = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve Prometheus metrics on this address while running",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "zk_deposit"
	app.Usage = "Deposit ETH and ERC20 tokens from L1 to an Era L2"
	app.Flags = []cli.Flag{LogLevel}
	app.Before = setupLogging
	app.Commands = []*cli.Command{
		{
			Name:   "deposit",
			Usage:  "Send a deposit through the bridge hub",
			Flags:  []cli.Flag{L1RPC, L2RPC, PrivateKey, Amount, Token, Receiver, Bridge, AutoApproval, MinTipGwei, Wait, Timeout, MetricsAddr},
			Action: deposit,
		},
		{
			Name:   "approve",
			Usage:  "Approve the L1 shared bridge to spend a token",
			Flags:  []cli.Flag{L1RPC, L2RPC, PrivateKey, Amount, Token, Bridge, Timeout},
			Action: approve,
		},
		{
			Name:   "fees",
			Usage:  "Print the L1 fee caps a deposit would use",
			Flags:  []cli.Flag{L1RPC},
			Action: fees,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func setupLogging(cliCtx *cli.Context) error {
	lvl, err := log.LvlFromString(cliCtx.String(LogLevel.Name))
	if err != nil {
		return err
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
	return nil
}

type clients struct {
	l1     *gethclient.Client
	l2     *ethclient.Client
	wallet *zkwallet.Wallet
}

func dial(ctx context.Context, cliCtx *cli.Context) (*clients, error) {
	signer, err := zkwallet.PrivateKeySignerFromHex(cliCtx.String(PrivateKey.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	l1, err := gethclient.DialContext(ctx, cliCtx.String(L1RPC.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to L1 node: %w", err)
	}
	l2, err := ethclient.DialContext(ctx, cliCtx.String(L2RPC.Name))
	if err != nil {
		l1.Close()
		return nil, fmt.Errorf("failed to connect to L2 node: %w", err)
	}
	return &clients{l1: l1, l2: l2, wallet: zkwallet.New(signer)}, nil
}

func (c *clients) Close() {
	c.l1.Close()
	c.l2.Close()
}

func parseAddress(cliCtx *cli.Context, flag *cli.StringFlag) (*common.Address, error) {
	s := cliCtx.String(flag.Name)
	if s == "" {
		return nil, nil
	}
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("invalid %s address: %q", flag.Name, s)
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

func depositRequest(cliCtx *cli.Context) (zkbridge.DepositRequest, error) {
	amount, err := uint256.FromDecimal(cliCtx.String(Amount.Name))
	if err != nil {
		return zkbridge.DepositRequest{}, fmt.Errorf("invalid amount: %w", err)
	}
	req := zkbridge.NewDepositRequest(amount).WithAutoApproval(cliCtx.Bool(AutoApproval.Name))

	addrs := []struct {
		flag  *cli.StringFlag
		apply func(common.Address) zkbridge.DepositRequest
	}{
		{Token, func(a common.Address) zkbridge.DepositRequest { return req.WithToken(a) }},
		{Receiver, func(a common.Address) zkbridge.DepositRequest { return req.WithReceiver(a) }},
		{Bridge, func(a common.Address) zkbridge.DepositRequest { return req.WithBridgeAddress(a) }},
	}
	for _, a := range addrs {
		addr, err := parseAddress(cliCtx, a.flag)
		if err != nil {
			return zkbridge.DepositRequest{}, err
		}
		if addr != nil {
			req = a.apply(*addr)
		}
	}
	return req, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "addr", addr, "err", err)
		}
	}()
	return srv
}

func deposit(cliCtx *cli.Context) error {
	ctx, cancel := context.WithTimeout(cliCtx.Context, cliCtx.Duration(Timeout.Name))
	defer cancel()

	req, err := depositRequest(cliCtx)
	if err != nil {
		return err
	}
	c, err := dial(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()

	opts := []zkbridge.Option{zkbridge.WithLogger(log.Root())}
	if tip := cliCtx.Float64(MinTipGwei.Name); tip > 0 {
		minTip, err := eth.GweiToWei(tip)
		if err != nil {
			return fmt.Errorf("invalid min tip: %w", err)
		}
		opts = append(opts, zkbridge.WithMinTipCap(minTip))
	}
	if addr := cliCtx.String(MetricsAddr.Name); addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, zkbridge.WithMetrics(zkbridge.NewMetrics(reg)))
		srv := serveMetrics(addr, reg)
		defer srv.Close()
	}

	receipt, err := zkbridge.NewDepositExecutor(c.l1, c.l2, c.wallet, req, opts...).Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("L1 transaction: %s (status %d, block %s)\n",
		receipt.Receipt().TxHash, receipt.Receipt().Status, receipt.Receipt().BlockNumber)

	l2Tx, err := receipt.L2Tx()
	if err != nil {
		return err
	}
	fmt.Printf("L2 transaction: %s\n", l2Tx.Hash())
	if !cliCtx.Bool(Wait.Name) {
		return nil
	}

	l2Receipt, err := l2Tx.Wait(ctx)
	if err != nil {
		return fmt.Errorf("failed waiting for L2 transaction: %w", err)
	}
	fmt.Printf("L2 receipt: status %d, block %s\n", l2Receipt.Status, l2Receipt.BlockNumber)
	return nil
}

func approve(cliCtx *cli.Context) error {
	ctx, cancel := context.WithTimeout(cliCtx.Context, cliCtx.Duration(Timeout.Name))
	defer cancel()

	req, err := depositRequest(cliCtx)
	if err != nil {
		return err
	}
	if req.IsETH() {
		return errors.New("approve needs a --token")
	}
	c, err := dial(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer c.Close()

	spender := req.BridgeAddress
	if spender == nil {
		bridges, err := c.l2.BridgeContracts(ctx)
		if err != nil {
			return fmt.Errorf("failed to get bridge contracts: %w", err)
		}
		if bridges.L1SharedDefaultBridge == nil {
			return errors.New("no L1 shared default bridge")
		}
		spender = bridges.L1SharedDefaultBridge
	}

	chainID, err := c.l1.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get L1 chain ID: %w", err)
	}
	from := c.wallet.DefaultSignerAddress()
	cfg, err := zkbridge.NewL1TxMgrConfig(c.l1, chainID, c.wallet.SignerFn(chainID), from)
	if err != nil {
		return err
	}
	mgr, err := txmgr.NewSimpleTxManagerFromConfig("zk-l1", log.Root(), &txmetrics.NoopTxMetrics{}, cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	candidate, err := zkbridge.ApprovalCandidate(req.Token, *spender, req.Amount.ToBig())
	if err != nil {
		return err
	}
	receipt, err := mgr.Send(ctx, candidate)
	if err != nil {
		return fmt.Errorf("failed to send approval: %w", err)
	}
	fmt.Printf("Approval: %s (status %d)\n", receipt.TxHash, receipt.Status)
	return nil
}

func fees(cliCtx *cli.Context) error {
	ctx := cliCtx.Context
	l1, err := gethclient.DialContext(ctx, cliCtx.String(L1RPC.Name))
	if err != nil {
		return fmt.Errorf("failed to connect to L1 node: %w", err)
	}
	defer l1.Close()

	tip, baseFee, _, err := zkbridge.DepositGasPriceEstimatorFn(ctx, l1)
	if err != nil {
		return err
	}
	maxFee := baseFee.Add(baseFee, tip)
	fmt.Printf("max priority fee: %v gwei\n", eth.WeiToGwei(tip))
	fmt.Printf("max fee:          %v gwei\n", eth.WeiToGwei(maxFee))
	return nil
}
