package signer

import (
	"context"
	"fmt"
	"strings"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
)

const (
	// HeaderAPIKey authenticates calls to the signer service
	HeaderAPIKey = "X-API-Key"
	// HeaderIdempotencyKey lets the signer return the original result for a repeated request,
	// so a retried submission never produces a second transaction
	HeaderIdempotencyKey = "Idempotency-Key"
)

type paymentResponse struct {
	Transaction string `json:"transaction"`
}

type submissionResponse struct {
	Signature string `json:"signature"`
	AssetID   string `json:"asset_id"`
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient adapter.HTTPClient
}

// NewClient creates a transaction builder backed by the signer service
func NewClient(baseURL, apiKey string, httpClient adapter.HTTPClient) chain.TransactionBuilder {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *client) headers(idempotencyKey string) map[string]string {
	headers := map[string]string{HeaderAPIKey: c.apiKey}
	if idempotencyKey != "" {
		headers[HeaderIdempotencyKey] = idempotencyKey
	}
	return headers
}

func (c *client) post(ctx context.Context, path, idempotencyKey string, body, result interface{}) error {
	err := c.httpClient.PostJSON(ctx, c.baseURL+path, c.headers(idempotencyKey), body, result)
	if err == nil {
		return nil
	}
	if adapter.IsRetryable(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTransientChain, path, err)
	}
	return fmt.Errorf("signer request %s failed: %w", path, err)
}

// BuildPaymentTransaction asks the signer for an unsigned transfer from the buyer to the creator
func (c *client) BuildPaymentTransaction(ctx context.Context, req chain.PaymentRequest) (string, error) {
	body := map[string]interface{}{
		"purchase_id": req.PurchaseID,
		"post_id":     req.PostID,
		"payer":       req.BuyerWallet,
		"payee":       req.PayeeWallet,
		"amount":      req.Amount,
		"currency":    req.Currency,
	}

	var resp paymentResponse
	if err := c.post(ctx, "/v1/transactions/payment", "payment:"+req.PurchaseID, body, &resp); err != nil {
		return "", err
	}
	if resp.Transaction == "" {
		return "", fmt.Errorf("signer returned an empty payment transaction for purchase %s", req.PurchaseID)
	}
	return resp.Transaction, nil
}

// CreateMasterEdition creates the post's master edition. The idempotency key is the post so
// that at most one master creation transaction exists per post.
func (c *client) CreateMasterEdition(ctx context.Context, req chain.MasterEditionRequest) (*chain.Submission, error) {
	body := map[string]interface{}{
		"post_id":      req.PostID,
		"creator":      req.CreatorWallet,
		"name":         req.Name,
		"symbol":       req.Symbol,
		"metadata_uri": req.MetadataURI,
		"max_supply":   req.MaxSupply,
	}
	return c.submit(ctx, "/v1/editions/master", "master:"+req.PostID, body)
}

// MintPrint mints one print of the master edition for a purchase
func (c *client) MintPrint(ctx context.Context, req chain.PrintRequest) (*chain.Submission, error) {
	body := map[string]interface{}{
		"purchase_id":     req.PurchaseID,
		"post_id":         req.PostID,
		"master_asset_id": req.MasterAssetID,
		"recipient":       req.RecipientWallet,
	}
	return c.submit(ctx, "/v1/editions/print", "print:"+req.PurchaseID, body)
}

// MintCollectible submits a compressed mint for a collection
func (c *client) MintCollectible(ctx context.Context, req chain.CollectibleRequest) (*chain.Submission, error) {
	body := map[string]interface{}{
		"collection_id": req.CollectionID,
		"post_id":       req.PostID,
		"name":          req.Name,
		"symbol":        req.Symbol,
		"metadata_uri":  req.MetadataURI,
		"recipient":     req.RecipientWallet,
		"wait":          false,
	}
	key := "collect:" + req.CollectionID
	if req.Attempt != "" {
		key += ":" + req.Attempt
	}
	return c.submit(ctx, "/v1/collectibles/mint", key, body)
}

func (c *client) submit(ctx context.Context, path, idempotencyKey string, body interface{}) (*chain.Submission, error) {
	var resp submissionResponse
	if err := c.post(ctx, path, idempotencyKey, body, &resp); err != nil {
		return nil, err
	}
	if err := domain.ValidateSignature(resp.Signature); err != nil {
		return nil, fmt.Errorf("signer returned an invalid signature for %s: %w", path, err)
	}
	return &chain.Submission{
		Signature: resp.Signature,
		AssetID:   resp.AssetID,
	}, nil
}
