package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-editions/internal/chain"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/fulfillment"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/mocks"
	"github.com/feral-file/ff-editions/internal/store"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

const (
	masterSignature = "2AXDGYSE4f2sz7tvMMzyHvUfcoJmxudvdhBcmiUSo6ijwfYmfZYsKRxboQMPh3R4kUhXRVdtSXFXMheka4Rc4P2"
	printSignature  = "3L3RY5sT8K4kyEnqhizwaqxLEbcYvpGrGPNEYRwtbCSUtL6YL86jdrvCbohnP5q8VxQ3qzGmt3W3iQJW97rD7m3"
	buyerWallet     = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

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

type testOrchestratorMocks struct {
	ctrl     *gomock.Controller
	store    *store.MemoryStore
	builder  *mocks.MockTransactionBuilder
	notifier *mocks.MockDispatcher
	clock    *mocks.MockClock
}

func setupTestOrchestrator(t *testing.T) (*testOrchestratorMocks, fulfillment.Orchestrator) {
	ctrl := gomock.NewController(t)
	m := &testOrchestratorMocks{
		ctrl:     ctrl,
		store:    store.NewMemoryStore(),
		builder:  mocks.NewMockTransactionBuilder(ctrl),
		notifier: mocks.NewMockDispatcher(ctrl),
		clock:    mocks.NewMockClock(ctrl),
	}
	m.clock.EXPECT().Now().Return(testNow).AnyTimes()

	o := fulfillment.NewOrchestrator(
		fulfillment.Config{StaleThreshold: 2 * time.Minute},
		m.store, m.builder, m.notifier, m.clock,
	)
	return m, o
}

func (m *testOrchestratorMocks) createPost(t *testing.T, masterAssetID *string) *schema.Post {
	t.Helper()

	maxSupply := 10
	post := &schema.Post{
		ID:            uuid.NewString(),
		CreatorID:     uuid.NewString(),
		CreatorWallet: "creator-wallet",
		Kind:          domain.PostKindEdition,
		Name:          "Edition",
		Symbol:        "ED",
		MetadataURI:   "https://meta.example/edition.json",
		Price:         domain.LamportsPerSOL,
		Currency:      domain.CurrencySOL,
		MaxSupply:     &maxSupply,
		MasterAssetID: masterAssetID,
	}
	require.NoError(t, m.store.CreatePost(context.Background(), post))
	return post
}

func (m *testOrchestratorMocks) createPurchase(t *testing.T, postID string, status domain.PurchaseStatus) *schema.Purchase {
	t.Helper()

	paymentSignature := fmt.Sprintf("payment-%s", uuid.NewString())
	purchase := &schema.Purchase{
		ID:                 uuid.NewString(),
		UserID:             uuid.NewString(),
		PostID:             postID,
		BuyerWallet:        buyerWallet,
		AmountPaid:         domain.LamportsPerSOL,
		Currency:           domain.CurrencySOL,
		PaymentTxSignature: &paymentSignature,
		Status:             status,
		ReservedAt:         testNow.Add(-time.Minute),
	}
	require.NoError(t, m.store.CreatePurchase(context.Background(), purchase))
	return purchase
}

func (m *testOrchestratorMocks) purchase(t *testing.T, id string) *schema.Purchase {
	t.Helper()

	p, err := m.store.GetPurchase(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (m *testOrchestratorMocks) post(t *testing.T, id string) *schema.Post {
	t.Helper()

	p, err := m.store.GetPost(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func strPtr(s string) *string {
	return &s
}

func TestFulfill_FirstPurchaseCreatesMasterThenPrint(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	gomock.InOrder(
		m.builder.EXPECT().
			CreateMasterEdition(gomock.Any(), chain.MasterEditionRequest{
				PostID:        post.ID,
				CreatorWallet: "creator-wallet",
				Name:          "Edition",
				Symbol:        "ED",
				MetadataURI:   "https://meta.example/edition.json",
				MaxSupply:     post.MaxSupply,
			}).
			Return(&chain.Submission{Signature: masterSignature, AssetID: "Master111"}, nil),
		m.builder.EXPECT().
			MintPrint(gomock.Any(), chain.PrintRequest{
				PurchaseID:      purchase.ID,
				PostID:          post.ID,
				MasterAssetID:   "Master111",
				RecipientWallet: buyerWallet,
			}).
			Return(&chain.Submission{Signature: printSignature, AssetID: "Print111"}, nil),
	)
	m.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, n domain.Notification) {
			assert.Equal(t, domain.NotificationPurchaseConfirmed, n.Kind)
			assert.Equal(t, purchase.ID, n.SubjectID)
			require.NotNil(t, n.AssetID)
			assert.Equal(t, "Print111", *n.AssetID)
		})

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusConfirmed, got.Status)
	assert.Equal(t, "Print111", *got.AssetID)
	assert.Equal(t, printSignature, *got.PrintTxSignature)
	assert.Equal(t, masterSignature, *got.MasterCreationTxSignature)
	assert.Nil(t, got.FulfillmentKey)
	assert.Nil(t, got.FulfillmentClaimedAt)
	assert.True(t, testNow.Equal(*got.MintConfirmedAt))

	updatedPost := m.post(t, post.ID)
	assert.Equal(t, "Master111", *updatedPost.MasterAssetID)
	assert.Nil(t, updatedPost.MasterClaimKey)
}

func TestFulfill_LaterPurchaseOnlyMintsPrint(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, strPtr("Master111"))
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		Return(&chain.Submission{Signature: printSignature}, nil)
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusConfirmed, got.Status)
	// The asset id is back-filled later when the builder could not derive it
	assert.Nil(t, got.AssetID)
	assert.Nil(t, got.MasterCreationTxSignature)
}

func TestClaim_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.PurchaseStatus
		claimAge time.Duration
		expected fulfillment.Outcome
	}{
		{
			name:     "reserved purchase is not ready",
			status:   domain.PurchaseStatusReserved,
			expected: fulfillment.OutcomeNotReady,
		},
		{
			name:     "submitted purchase is not ready",
			status:   domain.PurchaseStatusSubmitted,
			expected: fulfillment.OutcomeNotReady,
		},
		{
			name:     "confirmed purchase is terminal",
			status:   domain.PurchaseStatusConfirmed,
			expected: fulfillment.OutcomeAlreadyTerminal,
		},
		{
			name:     "blocked purchase is terminal",
			status:   domain.PurchaseStatusBlockedMissingMaster,
			expected: fulfillment.OutcomeAlreadyTerminal,
		},
		{
			name:     "fresh minting claim is respected",
			status:   domain.PurchaseStatusMinting,
			claimAge: 30 * time.Second,
			expected: fulfillment.OutcomeAlreadyClaimed,
		},
		{
			name:     "awaiting fulfillment is granted",
			status:   domain.PurchaseStatusAwaitingFulfillment,
			expected: fulfillment.OutcomeGranted,
		},
		{
			name:     "master created is granted",
			status:   domain.PurchaseStatusMasterCreated,
			expected: fulfillment.OutcomeGranted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, o := setupTestOrchestrator(t)
			defer m.ctrl.Finish()

			post := m.createPost(t, strPtr("Master111"))
			purchase := m.createPurchase(t, post.ID, tt.status)
			if tt.status == domain.PurchaseStatusMinting {
				claimedAt := testNow.Add(-tt.claimAge)
				require.NoError(t, claimVia(m.store, purchase.ID, "holder", claimedAt))
			}

			claim, err := o.Claim(context.Background(), purchase.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, claim.Outcome)

			if tt.expected == fulfillment.OutcomeGranted {
				assert.NotEmpty(t, claim.Key)
				assert.Equal(t, tt.status, claim.From)

				got := m.purchase(t, purchase.ID)
				assert.Equal(t, domain.PurchaseStatusMinting, got.Status)
				assert.Equal(t, claim.Key, *got.FulfillmentKey)
			}
		})
	}
}

// claimVia walks a minting purchase back through a real claim so the store sets every field
func claimVia(st *store.MemoryStore, purchaseID, key string, claimedAt time.Time) error {
	ctx := context.Background()
	ok, err := st.TransitionPurchase(ctx, store.PurchaseTransition{
		PurchaseID: purchaseID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
		To:         domain.PurchaseStatusAwaitingFulfillment,
	})
	if err != nil || !ok {
		return fmt.Errorf("failed to reset purchase: ok=%v err=%v", ok, err)
	}
	ok, err = st.ClaimFulfillment(ctx, store.ClaimFulfillmentInput{
		PurchaseID:  purchaseID,
		From:        domain.PurchaseStatusAwaitingFulfillment,
		Key:         key,
		Now:         claimedAt,
		StaleBefore: claimedAt.Add(-time.Hour),
	})
	if err != nil || !ok {
		return fmt.Errorf("failed to claim purchase: ok=%v err=%v", ok, err)
	}
	return nil
}

func TestClaim_NotFound(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	_, err := o.Claim(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPurchaseNotFound)
}

func TestFulfill_StaleMintingIsRecovered(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, strPtr("Master111"))
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusMinting)
	require.NoError(t, claimVia(m.store, purchase.ID, "crashed", testNow.Add(-3*time.Minute)))

	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		Return(&chain.Submission{Signature: printSignature, AssetID: "Print111"}, nil)
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusConfirmed, got.Status)
}

func TestRecoverStale(t *testing.T) {
	tests := []struct {
		name      string
		master    *string
		age       time.Duration
		recovered bool
		expected  domain.PurchaseStatus
	}{
		{
			name:      "fresh claim is left alone",
			master:    strPtr("Master111"),
			age:       time.Minute,
			recovered: false,
			expected:  domain.PurchaseStatusMinting,
		},
		{
			name:      "stale claim with master goes to master_created",
			master:    strPtr("Master111"),
			age:       5 * time.Minute,
			recovered: true,
			expected:  domain.PurchaseStatusMasterCreated,
		},
		{
			name:      "stale claim without master goes to awaiting_fulfillment",
			age:       2 * time.Minute,
			recovered: true,
			expected:  domain.PurchaseStatusAwaitingFulfillment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, o := setupTestOrchestrator(t)
			defer m.ctrl.Finish()

			post := m.createPost(t, tt.master)
			purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusMinting)
			require.NoError(t, claimVia(m.store, purchase.ID, "crashed", testNow.Add(-tt.age)))

			recovered, err := o.RecoverStale(context.Background(), m.purchase(t, purchase.ID))
			require.NoError(t, err)
			assert.Equal(t, tt.recovered, recovered)

			got := m.purchase(t, purchase.ID)
			assert.Equal(t, tt.expected, got.Status)
			if tt.recovered {
				assert.Nil(t, got.FulfillmentKey)
			}
		})
	}
}

func TestFulfill_PrintFailureHandsBack(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, strPtr("Master111"))
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusMasterCreated)

	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("signer request /v1/editions/print failed: unexpected status code 400"))

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusMasterCreated, got.Status)
	assert.Nil(t, got.FulfillmentKey)
	assert.Nil(t, got.PrintTxSignature)
}

func TestFulfill_TransientFailureIsReturned(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, strPtr("Master111"))
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: /v1/editions/print: timeout", domain.ErrTransientChain))

	_, err := o.Fulfill(context.Background(), purchase.ID)
	assert.ErrorIs(t, err, domain.ErrTransientChain)

	// The record stays advanceable for the next poll
	got := m.purchase(t, purchase.ID)
	assert.Equal(t, domain.PurchaseStatusMasterCreated, got.Status)
	assert.Nil(t, got.FulfillmentKey)
}

func TestFulfill_MasterCreationFailureReleasesClaims(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	m.builder.EXPECT().
		CreateMasterEdition(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("insufficient fee payer balance"))

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusAwaitingFulfillment, got.Status)
	assert.Nil(t, got.FulfillmentKey)

	updatedPost := m.post(t, post.ID)
	assert.Nil(t, updatedPost.MasterAssetID)
	assert.Nil(t, updatedPost.MasterClaimKey)
}

func TestFulfill_MasterCreationInProgressDefers(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	ok, err := m.store.ClaimMasterCreation(context.Background(), store.ClaimMasterInput{
		PostID:      post.ID,
		Key:         "other-fulfillment",
		Now:         testNow.Add(-10 * time.Second),
		StaleBefore: testNow.Add(-2 * time.Minute),
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusAwaitingFulfillment, got.Status)
	assert.Nil(t, got.FulfillmentKey)
}

func TestFulfill_MissingMasterBlocks(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusMasterCreated)

	m.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, n domain.Notification) {
			assert.Equal(t, domain.NotificationPurchaseBlocked, n.Kind)
		})

	got, err := o.Fulfill(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusBlockedMissingMaster, got.Status)
	require.NotNil(t, got.FailureReason)
	assert.Nil(t, got.FulfillmentKey)

	// Never auto-resolved
	claim, err := o.Claim(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, fulfillment.OutcomeAlreadyTerminal, claim.Outcome)
}

func TestFulfill_ConcurrentCallersMintOnce(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	purchase := m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)

	m.builder.EXPECT().
		CreateMasterEdition(gomock.Any(), gomock.Any()).
		Return(&chain.Submission{Signature: masterSignature, AssetID: "Master111"}, nil).
		Times(1)
	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		Return(&chain.Submission{Signature: printSignature, AssetID: "Print111"}, nil).
		Times(1)
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Fulfill(context.Background(), purchase.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.PurchaseStatusConfirmed, m.purchase(t, purchase.ID).Status)
}

func TestFulfill_SingleMasterAcrossPurchases(t *testing.T) {
	m, o := setupTestOrchestrator(t)
	defer m.ctrl.Finish()

	post := m.createPost(t, nil)
	const buyers = 5
	purchases := make([]*schema.Purchase, buyers)
	for i := range purchases {
		purchases[i] = m.createPurchase(t, post.ID, domain.PurchaseStatusAwaitingFulfillment)
	}

	m.builder.EXPECT().
		CreateMasterEdition(gomock.Any(), gomock.Any()).
		Return(&chain.Submission{Signature: masterSignature, AssetID: "Master111"}, nil).
		Times(1)
	m.builder.EXPECT().
		MintPrint(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req chain.PrintRequest) (*chain.Submission, error) {
			assert.Equal(t, "Master111", req.MasterAssetID)
			return &chain.Submission{Signature: printSignature, AssetID: "Print-" + req.PurchaseID}, nil
		}).
		Times(buyers)
	m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(buyers)

	var wg sync.WaitGroup
	for _, p := range purchases {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := o.Fulfill(context.Background(), id)
			assert.NoError(t, err)
		}(p.ID)
	}
	wg.Wait()

	// Deferred purchases complete on their next poll
	for _, p := range purchases {
		got, err := o.Fulfill(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusConfirmed, got.Status)
		assert.Equal(t, "Print-"+p.ID, *got.AssetID)
	}
	assert.Equal(t, "Master111", *m.post(t, post.ID).MasterAssetID)
}
