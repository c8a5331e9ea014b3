// Package ethclient provides a JSON-RPC client for Era L2 nodes.
//
// An Era node speaks the standard eth_* namespace with a few differences, plus its own
// zks_* namespace. This package handles both:
//
// # Receipts and Headers
//
// L2 receipts and block headers carry the L1 batch the block was sealed into
// (l1BatchNumber, l1BatchTxIndex, l1BatchTimestamp) and receipts list the L2 to L1 logs
// a transaction produced. TransactionReceipt returns a *zktx.Receipt and HeaderByNumber a
// *Header so these fields are not lost. Both are nil until the batch is sealed.
//
// # 0x71 Transactions
//
// SendTransaction accepts a *zktx.TxEnvelope, so signed 0x71 transactions and native
// Ethereum ones go through the same call. SendRawTransaction takes pre-encoded bytes.
//
// # Network Methods
//
// Every zks_* method has a Go counterpart named after it without the prefix, e.g.
// zks_getBridgeContracts is BridgeContracts and zks_L1ChainId is L1ChainID. Lookups of a
// block, batch, transaction or proof return ethereum.NotFound when the node has no result.
//
// # Preparing Transactions
//
// FillFees completes the gas limit, the fee caps and the gas per pubdata of a
// zktx.TransactionRequest from one zks_estimateFee call, touching only the fields that
// are missing. PrepareTransaction additionally fills the chain ID and the pending nonce:
//
//	client, err := ethclient.Dial("http://localhost:3050")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	req := zktx.TransactionRequest{}.
//	    WithFrom(from).
//	    WithTo(to).
//	    WithValue(amount).
//	    WithGasPerPubdata(uint256.NewInt(50000))
//	req, err = client.PrepareTransaction(ctx, req)
//	if err != nil {
//	    return err
//	}
//	unsigned, err := req.BuildUnsigned()
//
// # Waiting for Receipts
//
// SendTransactionAndTrack returns a PendingTransaction whose Wait method polls for the
// receipt until it appears or the context ends:
//
//	pending, err := client.SendTransactionAndTrack(ctx, signed)
//	if err != nil {
//	    return err
//	}
//	receipt, err := pending.WithInterval(500 * time.Millisecond).Wait(ctx)
package ethclient
