package chain

import (
	"context"

	"github.com/feral-file/ff-editions/internal/domain"
)

// LedgerReader queries live on-chain state
//
//go:generate mockgen -source=chain.go -destination=../mocks/chain.go -package=mocks -mock_names=LedgerReader=MockLedgerReader,TransactionBuilder=MockTransactionBuilder
type LedgerReader interface {
	// GetSignatureStatus returns the commitment reached by a transaction.
	// Transport failures that survive retries wrap domain.ErrTransientChain.
	GetSignatureStatus(ctx context.Context, signature string) (domain.TxStatus, error)

	// GetBalance returns the native balance of a wallet in lamports
	GetBalance(ctx context.Context, wallet string) (uint64, error)

	// ExtractAssetID derives the asset minted by a confirmed transaction.
	// Returns an empty string when it cannot be derived yet.
	ExtractAssetID(ctx context.Context, signature string) (string, error)

	// VerifyPayment checks that a settled transaction moved at least the expected amount
	// from the payer to the payee. Returns an error wrapping domain.ErrPaymentMismatch
	// when it did not.
	VerifyPayment(ctx context.Context, signature string, expected PaymentExpectation) error
}

// PaymentExpectation is what a payment transaction must show for a purchase
type PaymentExpectation struct {
	Payer    string
	Payee    string
	Amount   int64
	Currency domain.Currency
}

// PaymentRequest describes the payment a buyer signs for an edition
type PaymentRequest struct {
	PurchaseID  string
	PostID      string
	BuyerWallet string
	// PayeeWallet is the creator wallet receiving the payment
	PayeeWallet string
	Amount      int64
	Currency    domain.Currency
}

// MasterEditionRequest describes the master edition shared by every print of a post
type MasterEditionRequest struct {
	PostID        string
	CreatorWallet string
	Name          string
	Symbol        string
	MetadataURI   string
	// MaxSupply is nil for open editions
	MaxSupply *int
}

// PrintRequest describes the print minted for one purchase
type PrintRequest struct {
	PurchaseID      string
	PostID          string
	MasterAssetID   string
	RecipientWallet string
}

// CollectibleRequest describes the compressed asset minted for one collection
type CollectibleRequest struct {
	CollectionID    string
	PostID          string
	Name            string
	Symbol          string
	MetadataURI     string
	RecipientWallet string
	// Attempt distinguishes a retry of a failed collection from the original submission
	Attempt string
}

// Submission is the result of a server-paid transaction
type Submission struct {
	Signature string
	// AssetID is empty when the builder could not derive it
	AssetID string
}

// TransactionBuilder constructs, signs and submits on-chain transactions.
// Server-paid submissions are idempotent per request identity: repeating a request whose
// transaction was sent returns the original signature instead of sending another.
type TransactionBuilder interface {
	// BuildPaymentTransaction returns a base64 encoded unsigned transaction for the buyer to sign
	BuildPaymentTransaction(ctx context.Context, req PaymentRequest) (string, error)

	// CreateMasterEdition creates the master edition and returns once it is confirmed
	CreateMasterEdition(ctx context.Context, req MasterEditionRequest) (*Submission, error)

	// MintPrint mints a print of the master edition and returns once it is confirmed
	MintPrint(ctx context.Context, req PrintRequest) (*Submission, error)

	// MintCollectible submits a compressed mint and returns as soon as it is sent.
	// Confirmation is observed through the LedgerReader.
	MintCollectible(ctx context.Context, req CollectibleRequest) (*Submission, error)
}
