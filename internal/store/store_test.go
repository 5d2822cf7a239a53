package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// buildTestPost creates an edition post with the given max supply
func buildTestPost(maxSupply *int) *schema.Post {
	return &schema.Post{
		ID:            uuid.NewString(),
		CreatorID:     uuid.NewString(),
		CreatorWallet: "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		Kind:          domain.PostKindEdition,
		Name:          "Test Edition",
		Symbol:        "TEST",
		MetadataURI:   "https://example.com/metadata.json",
		Price:         domain.LamportsPerSOL / 10,
		Currency:      domain.CurrencySOL,
		MaxSupply:     maxSupply,
	}
}

// buildTestPurchase creates a reserved purchase for the post
func buildTestPurchase(postID string) *schema.Purchase {
	return &schema.Purchase{
		ID:          uuid.NewString(),
		UserID:      uuid.NewString(),
		PostID:      postID,
		BuyerWallet: "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR",
		AmountPaid:  domain.LamportsPerSOL / 10,
		Currency:    domain.CurrencySOL,
		Status:      domain.PurchaseStatusReserved,
		ReservedAt:  time.Now().UTC(),
	}
}

// buildTestCollection creates a pending collection for the post
func buildTestCollection(userID, postID string) *schema.Collection {
	return &schema.Collection{
		ID:              uuid.NewString(),
		UserID:          userID,
		PostID:          postID,
		RecipientWallet: "CktRuQ2mttgRGkXJtyksdKHjUdc2C4TgDzyB98oEzy8",
		Status:          domain.CollectionStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

func createPost(t *testing.T, store Store, maxSupply *int) *schema.Post {
	post := buildTestPost(maxSupply)
	require.NoError(t, store.CreatePost(context.Background(), post))
	return post
}

func createPurchase(t *testing.T, store Store, postID string) *schema.Purchase {
	purchase := buildTestPurchase(postID)
	require.NoError(t, store.CreatePurchase(context.Background(), purchase))
	return purchase
}

func currentSupply(t *testing.T, store Store, postID string) int {
	post, err := store.GetPost(context.Background(), postID)
	require.NoError(t, err)
	require.NotNil(t, post)
	return post.CurrentSupply
}

// =============================================================================
// Suites
// =============================================================================

// RunStoreTests runs the behavioral store tests against an implementation.
// initDB must return a store with a clean state for each subtest.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	t.Run("ReserveSupply", func(t *testing.T) { testReserveSupply(t, initDB(t)) })
	t.Run("ReleaseSupply", func(t *testing.T) { testReleaseSupply(t, initDB(t)) })
	t.Run("SetMasterAssetIfNull", func(t *testing.T) { testSetMasterAssetIfNull(t, initDB(t)) })
	t.Run("ClaimMasterCreation", func(t *testing.T) { testClaimMasterCreation(t, initDB(t)) })
	t.Run("TransitionPurchase", func(t *testing.T) { testTransitionPurchase(t, initDB(t)) })
	t.Run("ClaimFulfillment", func(t *testing.T) { testClaimFulfillment(t, initDB(t)) })
	t.Run("PurchaseLookups", func(t *testing.T) { testPurchaseLookups(t, initDB(t)) })
	t.Run("Collections", func(t *testing.T) { testCollections(t, initDB(t)) })
	t.Run("AuditLogs", func(t *testing.T) { testAuditLogs(t, initDB(t)) })
}

// RunConcurrencyTests runs the race tests. initDB must return a store that is safe for
// concurrent use by many goroutines.
func RunConcurrencyTests(t *testing.T, initDB func(t *testing.T) Store) {
	t.Run("supply never oversold", func(t *testing.T) { testConcurrentReserve(t, initDB(t)) })
	t.Run("exactly one fulfillment claim", func(t *testing.T) { testConcurrentClaim(t, initDB(t)) })
	t.Run("single master edition", func(t *testing.T) { testConcurrentMaster(t, initDB(t)) })
	t.Run("exactly one master creation claim", func(t *testing.T) { testConcurrentMasterClaim(t, initDB(t)) })
	t.Run("one purchase per payment signature", func(t *testing.T) { testConcurrentSignature(t, initDB(t)) })
}

func testReserveSupply(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("capped post admits up to max supply", func(t *testing.T) {
		post := createPost(t, store, intPtr(2))

		for i := 0; i < 2; i++ {
			ok, err := store.ReserveSupply(ctx, post.ID)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		ok, err := store.ReserveSupply(ctx, post.ID)
		require.NoError(t, err)
		assert.False(t, ok, "third reservation must be sold out")
		assert.Equal(t, 2, currentSupply(t, store, post.ID))
	})

	t.Run("unlimited post always admits", func(t *testing.T) {
		post := createPost(t, store, nil)

		for i := 0; i < 5; i++ {
			ok, err := store.ReserveSupply(ctx, post.ID)
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Equal(t, 5, currentSupply(t, store, post.ID))
	})

	t.Run("zero max supply is always sold out", func(t *testing.T) {
		post := createPost(t, store, intPtr(0))

		ok, err := store.ReserveSupply(ctx, post.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, currentSupply(t, store, post.ID))
	})

	t.Run("unknown post admits nothing", func(t *testing.T) {
		ok, err := store.ReserveSupply(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func testReleaseSupply(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("release frees a slot", func(t *testing.T) {
		post := createPost(t, store, intPtr(1))

		ok, err := store.ReserveSupply(ctx, post.ID)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.ReleaseSupply(ctx, post.ID))
		assert.Equal(t, 0, currentSupply(t, store, post.ID))

		ok, err = store.ReserveSupply(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release is clamped at zero", func(t *testing.T) {
		post := createPost(t, store, intPtr(3))

		require.NoError(t, store.ReleaseSupply(ctx, post.ID))
		require.NoError(t, store.ReleaseSupply(ctx, post.ID))
		assert.Equal(t, 0, currentSupply(t, store, post.ID))
	})
}

func testSetMasterAssetIfNull(t *testing.T, store Store) {
	ctx := context.Background()
	post := createPost(t, store, intPtr(10))

	winner, err := store.SetMasterAssetIfNull(ctx, post.ID, "master-1", "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "master-1", winner)

	winner, err = store.SetMasterAssetIfNull(ctx, post.ID, "master-2", "sig-2")
	require.NoError(t, err)
	assert.Equal(t, "master-1", winner, "second writer adopts the first value")

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MasterAssetID)
	assert.Equal(t, "master-1", *got.MasterAssetID)
	require.NotNil(t, got.MasterCreationTxSignature)
	assert.Equal(t, "sig-1", *got.MasterCreationTxSignature)
}

func testClaimMasterCreation(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC()
	post := createPost(t, store, intPtr(10))

	claim := func(key string, at time.Time) bool {
		ok, err := store.ClaimMasterCreation(ctx, ClaimMasterInput{
			PostID:      post.ID,
			Key:         key,
			Now:         at,
			StaleBefore: at.Add(-domain.DEFAULT_STALE_THRESHOLD),
		})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, claim("key-1", now))
	assert.False(t, claim("key-2", now), "fresh claim blocks others")

	// Releasing with the wrong key is a no-op
	require.NoError(t, store.ReleaseMasterClaim(ctx, post.ID, "key-2"))
	assert.False(t, claim("key-2", now))

	require.NoError(t, store.ReleaseMasterClaim(ctx, post.ID, "key-1"))
	assert.True(t, claim("key-2", now))

	// A crashed holder is taken over once its claim is stale
	assert.True(t, claim("key-3", now.Add(domain.DEFAULT_STALE_THRESHOLD+time.Second)))

	_, err := store.SetMasterAssetIfNull(ctx, post.ID, "master-1", "sig-1")
	require.NoError(t, err)
	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MasterClaimKey, "persisting the master clears the claim")
	assert.False(t, claim("key-4", now.Add(time.Hour)), "no claim once the master exists")
}

func testTransitionPurchase(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("applies when prior status matches", func(t *testing.T) {
		post := createPost(t, store, intPtr(5))
		purchase := createPurchase(t, store, post.ID)
		now := time.Now().UTC()

		ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusReserved, domain.PurchaseStatusSubmitted},
			To:         domain.PurchaseStatusSubmitted,
			Update: PurchaseUpdate{
				PaymentTxSignature: stringPtr("pay-sig"),
				SubmittedAt:        &now,
			},
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetPurchase(ctx, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusSubmitted, got.Status)
		require.NotNil(t, got.PaymentTxSignature)
		assert.Equal(t, "pay-sig", *got.PaymentTxSignature)
		assert.NotNil(t, got.SubmittedAt)
	})

	t.Run("no-op when prior status differs", func(t *testing.T) {
		post := createPost(t, store, intPtr(5))
		purchase := createPurchase(t, store, post.ID)

		ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusSubmitted},
			To:         domain.PurchaseStatusFailed,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := store.GetPurchase(ctx, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusReserved, got.Status)
	})

	t.Run("rejects edges outside the graph", func(t *testing.T) {
		ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: uuid.NewString(),
			From:       []domain.PurchaseStatus{domain.PurchaseStatusConfirmed},
			To:         domain.PurchaseStatusReserved,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
		assert.False(t, ok)
	})

	t.Run("release supply happens once with the transition", func(t *testing.T) {
		post := createPost(t, store, intPtr(1))
		ok, err := store.ReserveSupply(ctx, post.ID)
		require.NoError(t, err)
		require.True(t, ok)
		purchase := createPurchase(t, store, post.ID)

		transition := PurchaseTransition{
			PurchaseID:                purchase.ID,
			From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
			To:                        domain.PurchaseStatusAbandoned,
			RequireNoPaymentSignature: true,
			ReleaseSupply:             true,
		}
		ok, err = store.TransitionPurchase(ctx, transition)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, currentSupply(t, store, post.ID))

		ok, err = store.TransitionPurchase(ctx, transition)
		require.NoError(t, err)
		assert.False(t, ok, "replayed transition must not apply")
		assert.Equal(t, 0, currentSupply(t, store, post.ID))
	})

	t.Run("payment signature held by another purchase", func(t *testing.T) {
		post := createPost(t, store, intPtr(5))
		first := createPurchase(t, store, post.ID)
		second := createPurchase(t, store, post.ID)
		signature := "dup-" + uuid.NewString()

		submit := func(purchaseID string) (bool, error) {
			return store.TransitionPurchase(ctx, PurchaseTransition{
				PurchaseID:                purchaseID,
				From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
				To:                        domain.PurchaseStatusSubmitted,
				RequireNoPaymentSignature: true,
				Update:                    PurchaseUpdate{PaymentTxSignature: &signature},
			})
		}

		ok, err := submit(first.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = submit(second.ID)
		assert.ErrorIs(t, err, domain.ErrSignatureConflict)
		assert.False(t, ok)

		got, err := store.GetPurchase(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusReserved, got.Status)
		assert.Nil(t, got.PaymentTxSignature)
	})

	t.Run("require no payment signature", func(t *testing.T) {
		post := createPost(t, store, intPtr(5))
		purchase := buildTestPurchase(post.ID)
		purchase.PaymentTxSignature = stringPtr("already-signed")
		require.NoError(t, store.CreatePurchase(ctx, purchase))

		ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID:                purchase.ID,
			From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
			To:                        domain.PurchaseStatusAbandoned,
			RequireNoPaymentSignature: true,
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func testClaimFulfillment(t *testing.T, store Store) {
	ctx := context.Background()

	awaiting := func(t *testing.T) *schema.Purchase {
		post := createPost(t, store, intPtr(5))
		purchase := createPurchase(t, store, post.ID)
		ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusReserved},
			To:         domain.PurchaseStatusAwaitingFulfillment,
		})
		require.NoError(t, err)
		require.True(t, ok)
		return purchase
	}

	t.Run("first claim wins", func(t *testing.T) {
		purchase := awaiting(t)
		now := time.Now().UTC()

		ok, err := store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusAwaitingFulfillment, Key: "key-1", Now: now, StaleBefore: now.Add(-2 * time.Minute),
		})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusAwaitingFulfillment, Key: "key-2", Now: now, StaleBefore: now.Add(-2 * time.Minute),
		})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := store.GetPurchase(ctx, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusMinting, got.Status)
		require.NotNil(t, got.FulfillmentKey)
		assert.Equal(t, "key-1", *got.FulfillmentKey)
		assert.NotNil(t, got.FulfillmentClaimedAt)
		assert.NotNil(t, got.MintingStartedAt)
	})

	t.Run("claim key guards fulfillment writes", func(t *testing.T) {
		purchase := awaiting(t)
		now := time.Now().UTC()

		ok, err := store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusAwaitingFulfillment, Key: "holder", Now: now, StaleBefore: now.Add(-2 * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
			To:         domain.PurchaseStatusConfirmed,
			ClaimKey:   stringPtr("intruder"),
		})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
			To:         domain.PurchaseStatusConfirmed,
			ClaimKey:   stringPtr("holder"),
			Update:     PurchaseUpdate{ClearClaim: true, AssetID: stringPtr("print-asset")},
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetPurchase(ctx, purchase.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStatusConfirmed, got.Status)
		assert.Nil(t, got.FulfillmentKey)
		assert.Nil(t, got.FulfillmentClaimedAt)
	})

	t.Run("a lingering claim is only taken over once stale", func(t *testing.T) {
		purchase := awaiting(t)
		claimedAt := time.Now().UTC().Add(-time.Minute)

		ok, err := store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusAwaitingFulfillment, Key: "old", Now: claimedAt, StaleBefore: claimedAt.Add(-2 * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, ok)

		// master created but the claim was not cleared
		ok, err = store.TransitionPurchase(ctx, PurchaseTransition{
			PurchaseID: purchase.ID,
			From:       []domain.PurchaseStatus{domain.PurchaseStatusMinting},
			To:         domain.PurchaseStatusMasterCreated,
		})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusMasterCreated, Key: "new", Now: time.Now().UTC(), StaleBefore: claimedAt.Add(-time.Second),
		})
		require.NoError(t, err)
		assert.False(t, ok, "fresh claim must not be stolen")

		ok, err = store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusMasterCreated, Key: "new", Now: time.Now().UTC(), StaleBefore: claimedAt.Add(time.Second),
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not fulfillable before payment confirmation", func(t *testing.T) {
		post := createPost(t, store, intPtr(5))
		purchase := createPurchase(t, store, post.ID)
		now := time.Now().UTC()

		ok, err := store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusAwaitingFulfillment, Key: "key", Now: now, StaleBefore: now,
		})
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
			PurchaseID: purchase.ID, From: domain.PurchaseStatusReserved, Key: "key", Now: now, StaleBefore: now,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})
}

func testPurchaseLookups(t *testing.T, store Store) {
	ctx := context.Background()
	post := createPost(t, store, nil)

	paid := buildTestPurchase(post.ID)
	paid.PaymentTxSignature = stringPtr("payment-" + paid.ID)
	paid.Status = domain.PurchaseStatusSubmitted
	require.NoError(t, store.CreatePurchase(ctx, paid))

	printed := buildTestPurchase(post.ID)
	printed.PrintTxSignature = stringPtr("print-" + printed.ID)
	printed.Status = domain.PurchaseStatusMasterCreated
	require.NoError(t, store.CreatePurchase(ctx, printed))

	t.Run("get by payment signature", func(t *testing.T) {
		got, err := store.GetPurchaseByTxSignature(ctx, *paid.PaymentTxSignature)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, paid.ID, got.ID)
	})

	t.Run("get by print signature", func(t *testing.T) {
		got, err := store.GetPurchaseByTxSignature(ctx, *printed.PrintTxSignature)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, printed.ID, got.ID)
	})

	t.Run("unknown signature returns nil", func(t *testing.T) {
		got, err := store.GetPurchaseByTxSignature(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := store.GetPurchase(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list by status", func(t *testing.T) {
		got, err := store.ListPurchases(ctx, ListPurchasesFilter{
			Statuses: []domain.PurchaseStatus{domain.PurchaseStatusSubmitted},
		})
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, p := range got {
			ids = append(ids, p.ID)
		}
		assert.Contains(t, ids, paid.ID)
		assert.NotContains(t, ids, printed.ID)
	})

	t.Run("asset id back-fill is set once", func(t *testing.T) {
		ok, err := store.SetPurchaseAssetID(ctx, printed.ID, "asset-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetPurchaseAssetID(ctx, printed.ID, "asset-2")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := store.GetPurchase(ctx, printed.ID)
		require.NoError(t, err)
		assert.Equal(t, "asset-1", *got.AssetID)
	})
}

func testCollections(t *testing.T, store Store) {
	ctx := context.Background()
	post := createPost(t, store, nil)
	userID := uuid.NewString()

	collection := buildTestCollection(userID, post.ID)
	created, err := store.CreateCollection(ctx, collection)
	require.NoError(t, err)
	require.True(t, created)

	t.Run("duplicate (user, post) is not created", func(t *testing.T) {
		created, err := store.CreateCollection(ctx, buildTestCollection(userID, post.ID))
		require.NoError(t, err)
		assert.False(t, created)

		got, err := store.GetCollection(ctx, userID, post.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, collection.ID, got.ID)
	})

	t.Run("failed attempt is reused for retry", func(t *testing.T) {
		ok, err := store.TransitionCollection(ctx, CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusPending,
			To:           domain.CollectionStatusFailed,
		})
		require.NoError(t, err)
		require.True(t, ok)

		restarted := time.Now().UTC()
		ok, err = store.TransitionCollection(ctx, CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusFailed,
			To:           domain.CollectionStatusPending,
			Update: CollectionUpdate{
				RestartedAt:      &restarted,
				ClearTxSignature: true,
				OriginIP:         stringPtr("203.0.113.7"),
			},
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetCollectionByID(ctx, collection.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CollectionStatusPending, got.Status)
		require.NotNil(t, got.OriginIP)
		assert.Equal(t, "203.0.113.7", *got.OriginIP)
	})

	t.Run("stale cutoff guards the transition", func(t *testing.T) {
		ok, err := store.TransitionCollection(ctx, CollectionTransition{
			CollectionID:  collection.ID,
			From:          domain.CollectionStatusPending,
			To:            domain.CollectionStatusFailed,
			CreatedBefore: timePtr(time.Now().UTC().Add(-time.Hour)),
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("mint signature is recorded once while pending", func(t *testing.T) {
		ok, err := store.SetCollectionTxSignature(ctx, collection.ID, "mint-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetCollectionTxSignature(ctx, collection.ID, "mint-2")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := store.GetCollectionByTxSignature(ctx, "mint-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, collection.ID, got.ID)
	})

	t.Run("confirm with signature and lookup", func(t *testing.T) {
		sig := "collect-" + collection.ID
		now := time.Now().UTC()
		ok, err := store.TransitionCollection(ctx, CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusPending,
			To:           domain.CollectionStatusConfirmed,
			Update:       CollectionUpdate{TxSignature: &sig, ConfirmedAt: &now},
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetCollectionByTxSignature(ctx, sig)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.CollectionStatusConfirmed, got.Status)
		assert.NotNil(t, got.ConfirmedAt)

		_, err = store.TransitionCollection(ctx, CollectionTransition{
			CollectionID: collection.ID,
			From:         domain.CollectionStatusConfirmed,
			To:           domain.CollectionStatusPending,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})

	t.Run("asset id back-fill", func(t *testing.T) {
		ok, err := store.SetCollectionAssetID(ctx, collection.ID, "cnft-1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SetCollectionAssetID(ctx, collection.ID, "cnft-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("list pending before cutoff", func(t *testing.T) {
		old := buildTestCollection(uuid.NewString(), post.ID)
		old.CreatedAt = time.Now().UTC().Add(-10 * time.Minute)
		created, err := store.CreateCollection(ctx, old)
		require.NoError(t, err)
		require.True(t, created)

		got, err := store.ListPendingCollections(ctx, time.Now().UTC().Add(-2*time.Minute), 10)
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, c := range got {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, old.ID)
		assert.NotContains(t, ids, collection.ID)
	})
}

func testAuditLogs(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("webhook receipt replay is detected", func(t *testing.T) {
		sig := "sig-" + uuid.NewString()
		payload := []byte(`{"signature":"x","outcome":"confirmed"}`)

		first, err := store.RecordWebhookReceipt(ctx, sig, domain.TxStatusConfirmed, payload)
		require.NoError(t, err)
		assert.True(t, first)

		first, err = store.RecordWebhookReceipt(ctx, sig, domain.TxStatusConfirmed, payload)
		require.NoError(t, err)
		assert.False(t, first)

		first, err = store.RecordWebhookReceipt(ctx, sig, domain.TxStatusFinalized, payload)
		require.NoError(t, err)
		assert.True(t, first, "a different outcome is a new receipt")
	})

	t.Run("notification dedupe", func(t *testing.T) {
		key := "key-" + uuid.NewString()
		payload := []byte(`{"kind":"purchase.confirmed"}`)

		first, err := store.RecordNotification(ctx, key, "purchase.confirmed", payload)
		require.NoError(t, err)
		assert.True(t, first)

		first, err = store.RecordNotification(ctx, key, "purchase.confirmed", payload)
		require.NoError(t, err)
		assert.False(t, first)

		require.NoError(t, store.DeleteNotification(ctx, key))
		first, err = store.RecordNotification(ctx, key, "purchase.confirmed", payload)
		require.NoError(t, err)
		assert.True(t, first)
	})
}

// =============================================================================
// Concurrency
// =============================================================================

func testConcurrentReserve(t *testing.T, store Store) {
	ctx := context.Background()
	const maxSupply = 5
	const callers = 40

	post := createPost(t, store, intPtr(maxSupply))

	var granted, soldOut atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.ReserveSupply(ctx, post.ID)
			if !assert.NoError(t, err) {
				return
			}
			if ok {
				granted.Add(1)
			} else {
				soldOut.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(maxSupply), granted.Load())
	assert.Equal(t, int32(callers-maxSupply), soldOut.Load())
	assert.Equal(t, maxSupply, currentSupply(t, store, post.ID))
}

func testConcurrentClaim(t *testing.T, store Store) {
	ctx := context.Background()
	const callers = 20

	post := createPost(t, store, intPtr(1))
	purchase := createPurchase(t, store, post.ID)
	ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
		PurchaseID: purchase.ID,
		From:       []domain.PurchaseStatus{domain.PurchaseStatusReserved},
		To:         domain.PurchaseStatusAwaitingFulfillment,
	})
	require.NoError(t, err)
	require.True(t, ok)

	var granted atomic.Int32
	var wg sync.WaitGroup
	now := time.Now().UTC()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.ClaimFulfillment(ctx, ClaimFulfillmentInput{
				PurchaseID:  purchase.ID,
				From:        domain.PurchaseStatusAwaitingFulfillment,
				Key:         uuid.NewString(),
				Now:         now,
				StaleBefore: now.Add(-2 * time.Minute),
			})
			if assert.NoError(t, err) && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
}

func testConcurrentMasterClaim(t *testing.T, store Store) {
	ctx := context.Background()
	const callers = 20

	post := createPost(t, store, intPtr(callers))

	var granted atomic.Int32
	var wg sync.WaitGroup
	now := time.Now().UTC()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.ClaimMasterCreation(ctx, ClaimMasterInput{
				PostID:      post.ID,
				Key:         uuid.NewString(),
				Now:         now,
				StaleBefore: now.Add(-2 * time.Minute),
			})
			if assert.NoError(t, err) && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
}

func testConcurrentMaster(t *testing.T, store Store) {
	ctx := context.Background()
	const callers = 10

	post := createPost(t, store, intPtr(callers))

	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			winner, err := store.SetMasterAssetIfNull(ctx, post.ID, uuid.NewString(), uuid.NewString())
			if assert.NoError(t, err) {
				results[i] = winner
			}
		}(i)
	}
	wg.Wait()

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MasterAssetID)
	for _, r := range results {
		assert.Equal(t, *got.MasterAssetID, r)
	}
}

func testConcurrentSignature(t *testing.T, store Store) {
	ctx := context.Background()
	const callers = 10

	post := createPost(t, store, intPtr(callers))
	signature := "race-" + uuid.NewString()

	purchases := make([]*schema.Purchase, callers)
	for i := range purchases {
		purchases[i] = createPurchase(t, store, post.ID)
	}

	var applied, conflicts atomic.Int32
	var wg sync.WaitGroup
	for _, purchase := range purchases {
		wg.Add(1)
		go func(purchaseID string) {
			defer wg.Done()
			ok, err := store.TransitionPurchase(ctx, PurchaseTransition{
				PurchaseID:                purchaseID,
				From:                      []domain.PurchaseStatus{domain.PurchaseStatusReserved},
				To:                        domain.PurchaseStatusSubmitted,
				RequireNoPaymentSignature: true,
				Update:                    PurchaseUpdate{PaymentTxSignature: &signature},
			})
			switch {
			case errors.Is(err, domain.ErrSignatureConflict):
				conflicts.Add(1)
			case assert.NoError(t, err) && ok:
				applied.Add(1)
			}
		}(purchase.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, int32(callers-1), conflicts.Load())
}
