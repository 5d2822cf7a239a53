package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
)

// RPCError is a JSON-RPC error object returned by the cluster
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// SignatureStatus is one entry of getSignatureStatuses
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

// TokenBalance is a pre or post token balance of a transaction
type TokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount   string `json:"amount"`
		Decimals int    `json:"decimals"`
	} `json:"uiTokenAmount"`
}

// TransactionMeta is the subset of transaction metadata used to derive minted assets
// and verify payments
type TransactionMeta struct {
	Err               json.RawMessage `json:"err"`
	PreBalances       []uint64        `json:"preBalances"`
	PostBalances      []uint64        `json:"postBalances"`
	PreTokenBalances  []TokenBalance  `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance  `json:"postTokenBalances"`
}

// AccountKey is an account of a jsonParsed transaction message, lookup table
// addresses included
type AccountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

// Transaction is the subset of a jsonParsed getTransaction result used by the client
type Transaction struct {
	Meta        *TransactionMeta `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys []AccountKey `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

type client struct {
	rpcURL     string
	usdcMint   string
	httpClient adapter.HTTPClient
	nextID     atomic.Uint64
}

// NewClient creates a Solana JSON-RPC backed ledger reader for chainID
func NewClient(rpcURL string, chainID domain.Chain, httpClient adapter.HTTPClient) chain.LedgerReader {
	return &client{
		rpcURL:     rpcURL,
		usdcMint:   domain.USDCMint(chainID),
		httpClient: httpClient,
	}
}

// call performs a JSON-RPC call and decodes the result into out
func (c *client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := c.httpClient.PostJSON(ctx, c.rpcURL, nil, req, &resp); err != nil {
		if adapter.IsRetryable(err) {
			return fmt.Errorf("%w: %s: %v", domain.ErrTransientChain, method, err)
		}
		return fmt.Errorf("%s failed: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s failed: %w", method, resp.Error)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// GetSignatureStatus maps getSignatureStatuses onto domain.TxStatus
func (c *client) GetSignatureStatus(ctx context.Context, signature string) (domain.TxStatus, error) {
	var result struct {
		Value []*SignatureStatus `json:"value"`
	}
	params := []interface{}{
		[]string{signature},
		map[string]interface{}{"searchTransactionHistory": true},
	}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return "", err
	}

	if len(result.Value) == 0 || result.Value[0] == nil {
		return domain.TxStatusNotFound, nil
	}
	status := result.Value[0]
	if hasError(status.Err) {
		return domain.TxStatusFailed, nil
	}

	switch status.ConfirmationStatus {
	case "finalized":
		return domain.TxStatusFinalized, nil
	case "confirmed":
		return domain.TxStatusConfirmed, nil
	case "processed":
		return domain.TxStatusProcessed, nil
	}

	// Older nodes omit confirmationStatus; a null confirmations count means rooted
	if status.Confirmations == nil {
		return domain.TxStatusFinalized, nil
	}
	return domain.TxStatusProcessed, nil
}

// GetBalance returns the lamport balance of wallet at confirmed commitment
func (c *client) GetBalance(ctx context.Context, wallet string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	params := []interface{}{
		wallet,
		map[string]interface{}{"commitment": "confirmed"},
	}
	if err := c.call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// ExtractAssetID finds the mint created by the transaction: a token account that holds exactly
// one zero-decimal token after the transaction and did not exist before it.
// Compressed mints carry no token balances and yield an empty result.
func (c *client) ExtractAssetID(ctx context.Context, signature string) (string, error) {
	tx, err := c.getTransaction(ctx, signature)
	if err != nil {
		return "", err
	}
	if tx == nil || tx.Meta == nil || hasError(tx.Meta.Err) {
		return "", nil
	}
	return NewMint(tx.Meta), nil
}

// VerifyPayment checks the balance changes of a settled payment transaction
func (c *client) VerifyPayment(ctx context.Context, signature string, expected chain.PaymentExpectation) error {
	tx, err := c.getTransaction(ctx, signature)
	if err != nil {
		return err
	}
	// The status lookup already saw the transaction; the node serving this call is lagging
	if tx == nil || tx.Meta == nil {
		return fmt.Errorf("%w: transaction %s not yet available", domain.ErrTransientChain, signature)
	}
	if hasError(tx.Meta.Err) {
		return fmt.Errorf("%w: transaction failed", domain.ErrPaymentMismatch)
	}
	if !isSigner(tx.Transaction.Message.AccountKeys, expected.Payer) {
		return fmt.Errorf("%w: %s did not sign the transaction", domain.ErrPaymentMismatch, expected.Payer)
	}

	switch expected.Currency {
	case domain.CurrencySOL:
		return VerifyLamportTransfer(tx, expected)
	case domain.CurrencyUSDC:
		if c.usdcMint == "" {
			return fmt.Errorf("no USDC mint configured for this chain")
		}
		return VerifyTokenTransfer(tx.Meta, c.usdcMint, expected)
	default:
		return fmt.Errorf("unsupported currency %q", expected.Currency)
	}
}

// VerifyLamportTransfer checks that the payer lost and the payee gained at least the expected
// lamports. The payer side also covers the fee so only a lower bound is checked.
func VerifyLamportTransfer(tx *Transaction, expected chain.PaymentExpectation) error {
	meta := tx.Meta
	payerDelta, payerFound := lamportDelta(tx, expected.Payer)
	payeeDelta, payeeFound := lamportDelta(tx, expected.Payee)
	if !payerFound || !payeeFound || len(meta.PreBalances) != len(meta.PostBalances) {
		return fmt.Errorf("%w: payer or payee not in transaction", domain.ErrPaymentMismatch)
	}
	if payeeDelta < expected.Amount {
		return fmt.Errorf("%w: payee received %d lamports, expected %d", domain.ErrPaymentMismatch, payeeDelta, expected.Amount)
	}
	if -payerDelta < expected.Amount {
		return fmt.Errorf("%w: payer sent %d lamports, expected %d", domain.ErrPaymentMismatch, -payerDelta, expected.Amount)
	}
	return nil
}

// VerifyTokenTransfer checks the token balance changes of mint owned by the payer and the payee
func VerifyTokenTransfer(meta *TransactionMeta, mint string, expected chain.PaymentExpectation) error {
	payeeDelta, err := tokenDelta(meta, mint, expected.Payee)
	if err != nil {
		return err
	}
	payerDelta, err := tokenDelta(meta, mint, expected.Payer)
	if err != nil {
		return err
	}
	if payeeDelta < expected.Amount {
		return fmt.Errorf("%w: payee received %d token units, expected %d", domain.ErrPaymentMismatch, payeeDelta, expected.Amount)
	}
	if -payerDelta < expected.Amount {
		return fmt.Errorf("%w: payer sent %d token units, expected %d", domain.ErrPaymentMismatch, -payerDelta, expected.Amount)
	}
	return nil
}

func (c *client) getTransaction(ctx context.Context, signature string) (*Transaction, error) {
	var result *Transaction
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func isSigner(keys []AccountKey, wallet string) bool {
	for _, k := range keys {
		if k.Pubkey == wallet && k.Signer {
			return true
		}
	}
	return false
}

// lamportDelta sums the balance change of every account slot holding wallet
func lamportDelta(tx *Transaction, wallet string) (int64, bool) {
	meta := tx.Meta
	var delta int64
	found := false
	for i, k := range tx.Transaction.Message.AccountKeys {
		if k.Pubkey != wallet || i >= len(meta.PreBalances) || i >= len(meta.PostBalances) {
			continue
		}
		found = true
		delta += int64(meta.PostBalances[i]) - int64(meta.PreBalances[i])
	}
	return delta, found
}

// tokenDelta is the change of all mint balances owned by owner. An account missing from
// one side had a zero balance there.
func tokenDelta(meta *TransactionMeta, mint, owner string) (int64, error) {
	sum := func(balances []TokenBalance) (int64, error) {
		var total int64
		for _, b := range balances {
			if b.Mint != mint || b.Owner != owner {
				continue
			}
			amount, err := strconv.ParseInt(b.UITokenAmount.Amount, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid token amount %q: %w", b.UITokenAmount.Amount, err)
			}
			total += amount
		}
		return total, nil
	}

	pre, err := sum(meta.PreTokenBalances)
	if err != nil {
		return 0, err
	}
	post, err := sum(meta.PostTokenBalances)
	if err != nil {
		return 0, err
	}
	return post - pre, nil
}

// NewMint returns the mint that appears with a single unit in the post balances only
func NewMint(meta *TransactionMeta) string {
	existing := make(map[string]bool, len(meta.PreTokenBalances))
	for _, b := range meta.PreTokenBalances {
		existing[b.Mint] = true
	}
	for _, b := range meta.PostTokenBalances {
		if existing[b.Mint] {
			continue
		}
		if b.UITokenAmount.Amount == "1" && b.UITokenAmount.Decimals == 0 {
			return b.Mint
		}
	}
	return ""
}

func hasError(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
