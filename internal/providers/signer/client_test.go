package signer_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-editions/internal/adapter"
	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/mocks"
	"github.com/feral-file/ff-editions/internal/providers/signer"
)

const (
	baseURL = "https://signer.internal/"
	apiKey  = "test-api-key"
	// 64 bytes of 0x01 encoded in base58
	validSignature = "2AXDGYSE4f2sz7tvMMzyHvUfcoJmxudvdhBcmiUSo6ijwfYmfZYsKRxboQMPh3R4kUhXRVdtSXFXMheka4Rc4P2"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type capturedRequest struct {
	url     string
	headers map[string]string
	body    map[string]interface{}
}

func respondWith(raw string, captured *capturedRequest) func(ctx context.Context, url string, headers map[string]string, body interface{}, result interface{}) error {
	return func(ctx context.Context, url string, headers map[string]string, body interface{}, result interface{}) error {
		if captured != nil {
			captured.url = url
			captured.headers = headers
			data, _ := json.Marshal(body)
			_ = json.Unmarshal(data, &captured.body)
		}
		return json.Unmarshal([]byte(raw), result)
	}
}

func TestClient_BuildPaymentTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	var captured capturedRequest
	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), "https://signer.internal/v1/transactions/payment", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"transaction":"AQID"}`, &captured))

	tx, err := client.BuildPaymentTransaction(context.Background(), chain.PaymentRequest{
		PurchaseID:  "purchase-1",
		PostID:      "post-1",
		BuyerWallet: "buyer",
		PayeeWallet: "creator",
		Amount:      1_500_000_000,
		Currency:    domain.CurrencySOL,
	})
	require.NoError(t, err)
	assert.Equal(t, "AQID", tx)

	assert.Equal(t, apiKey, captured.headers[signer.HeaderAPIKey])
	assert.Equal(t, "payment:purchase-1", captured.headers[signer.HeaderIdempotencyKey])
	assert.Equal(t, "buyer", captured.body["payer"])
	assert.Equal(t, "creator", captured.body["payee"])
	assert.EqualValues(t, 1_500_000_000, captured.body["amount"])
}

func TestClient_BuildPaymentTransaction_EmptyTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"transaction":""}`, nil))

	_, err := client.BuildPaymentTransaction(context.Background(), chain.PaymentRequest{PurchaseID: "purchase-1"})
	assert.Error(t, err)
}

func TestClient_CreateMasterEdition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	var captured capturedRequest
	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), "https://signer.internal/v1/editions/master", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"signature":"`+validSignature+`","asset_id":"Master111"}`, &captured))

	maxSupply := 10
	sub, err := client.CreateMasterEdition(context.Background(), chain.MasterEditionRequest{
		PostID:        "post-1",
		CreatorWallet: "creator",
		Name:          "Edition",
		MetadataURI:   "https://meta.example/1.json",
		MaxSupply:     &maxSupply,
	})
	require.NoError(t, err)
	assert.Equal(t, validSignature, sub.Signature)
	assert.Equal(t, "Master111", sub.AssetID)
	assert.Equal(t, "master:post-1", captured.headers[signer.HeaderIdempotencyKey])
	assert.EqualValues(t, 10, captured.body["max_supply"])
}

func TestClient_MintPrint_InvalidSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), "https://signer.internal/v1/editions/print", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(respondWith(`{"signature":"not-a-signature","asset_id":"Print111"}`, nil))

	_, err := client.MintPrint(context.Background(), chain.PrintRequest{PurchaseID: "purchase-1", MasterAssetID: "Master111"})
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestClient_MintCollectible_IdempotencyKey(t *testing.T) {
	tests := []struct {
		name     string
		attempt  string
		expected string
	}{
		{
			name:     "first attempt",
			expected: "collect:collection-1",
		},
		{
			name:     "retry after failure",
			attempt:  "1700000000000000000",
			expected: "collect:collection-1:1700000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
			client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

			var captured capturedRequest
			mockHTTPClient.EXPECT().
				PostJSON(gomock.Any(), "https://signer.internal/v1/collectibles/mint", gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(respondWith(`{"signature":"`+validSignature+`"}`, &captured))

			sub, err := client.MintCollectible(context.Background(), chain.CollectibleRequest{
				CollectionID:    "collection-1",
				RecipientWallet: "collector",
				Attempt:         tt.attempt,
			})
			require.NoError(t, err)
			assert.Equal(t, validSignature, sub.Signature)
			assert.Empty(t, sub.AssetID)
			assert.Equal(t, tt.expected, captured.headers[signer.HeaderIdempotencyKey])
			assert.Equal(t, false, captured.body["wait"])
		})
	}
}

func TestClient_TransientFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&adapter.StatusError{StatusCode: 502, Body: "bad gateway"})

	_, err := client.MintPrint(context.Background(), chain.PrintRequest{PurchaseID: "purchase-1"})
	assert.ErrorIs(t, err, domain.ErrTransientChain)
}

func TestClient_PermanentFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	client := signer.NewClient(baseURL, apiKey, mockHTTPClient)

	mockHTTPClient.EXPECT().
		PostJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&adapter.StatusError{StatusCode: 400, Body: "invalid recipient"})

	_, err := client.MintCollectible(context.Background(), chain.CollectibleRequest{CollectionID: "collection-1"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrTransientChain))

	var statusErr *adapter.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 400, statusErr.StatusCode)
}
