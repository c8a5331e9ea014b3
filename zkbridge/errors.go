package zkbridge

// ErrorKind distinguishes the L1CommunicationError variants.
type ErrorKind int

const (
	// KindCustom is a failed step, described by the error message.
	KindCustom ErrorKind = iota
	// KindNewPriorityRequestLogNotFound means an L1 receipt carries no priority request.
	KindNewPriorityRequestLogNotFound
)

// L1CommunicationError is returned by every step of a deposit. Msg names the step that
// failed and Err, when set, is the underlying cause.
type L1CommunicationError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *L1CommunicationError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *L1CommunicationError) Unwrap() error {
	return e.Err
}

// ErrNewPriorityRequestLogNotFound is returned when an L1 receipt has no NewPriorityRequest
// event, so there is no L2 transaction to follow.
var ErrNewPriorityRequestLogNotFound = &L1CommunicationError{
	Kind: KindNewPriorityRequestLogNotFound,
	Msg:  "NewPriorityRequest event log was not found in L1 -> L2 transaction.",
}

func stepError(msg string, err error) error {
	return &L1CommunicationError{Kind: KindCustom, Msg: msg, Err: err}
}

// Step failure messages.
const (
	msgL2ChainID        = "Error occurred while fetching L2 chain id."
	msgL2BridgeAddress  = "Error while getting L2 bridge address."
	msgBridgeContracts  = "Error occurred while fetching bridge contracts."
	msgNoL1SharedBridge = "L1 shared default bridge is not defined for the chain and bridge address is not specified in the deposit request."
	msgNoL2SharedBridge = "L2 shared default bridge is not defined for the chain."
	msgPriorityFee      = "Error occurred while fetching L1 max_priority_fee_per_gas."
	msgBaseFees         = "Error occurred while estimating L1 base fees."
	msgBridgehub        = "Error occurred while fetching the bridge hub contract address."
	msgTokenData        = "Error while encoding ERC20 token data."
	msgL1ToL2Gas        = "Error occurred while estimating gas for L1 -> L2 transaction."
	msgBaseCost         = "Error occurred while estimating L2 transaction base cost."
	msgAllowance        = "Error occurred while fetching token allowance for the bridge."
	msgAutoApproval     = "Deposit request auto_approval is disabled and the current token allowance won't cover the deposit. Consider enabling deposit request auto_approval or approving tokens manually before the deposit."
	msgApprove          = "Error occurred while approving tokens for the bridge address"
	msgApproveFailed    = "Error occurred while approving tokens for the bridge address. Approve transaction has failed."
	msgL1GasLimit       = "Error occurred while estimating gas limit for the L1 transaction."
	msgSendDeposit      = "Error occurred while sending the L1 -> L2 deposit transaction."
	msgDepositReceipt   = "Error occurred while sending the L1 -> L2 deposit transaction receipt."
	msgEncodeCall       = "Error while encoding L1 contract call."
)
