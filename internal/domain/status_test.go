package domain_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-editions/internal/domain"
)

func TestPurchaseStatus_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from domain.PurchaseStatus
		to   domain.PurchaseStatus
	}{
		{domain.PurchaseStatusReserved, domain.PurchaseStatusSubmitted},
		{domain.PurchaseStatusReserved, domain.PurchaseStatusAbandoned},
		{domain.PurchaseStatusReserved, domain.PurchaseStatusAwaitingFulfillment},
		{domain.PurchaseStatusSubmitted, domain.PurchaseStatusAwaitingFulfillment},
		{domain.PurchaseStatusSubmitted, domain.PurchaseStatusFailed},
		{domain.PurchaseStatusAwaitingFulfillment, domain.PurchaseStatusMinting},
		{domain.PurchaseStatusMinting, domain.PurchaseStatusMasterCreated},
		{domain.PurchaseStatusMinting, domain.PurchaseStatusConfirmed},
		{domain.PurchaseStatusMinting, domain.PurchaseStatusAwaitingFulfillment},
		{domain.PurchaseStatusMasterCreated, domain.PurchaseStatusMinting},
		{domain.PurchaseStatusMasterCreated, domain.PurchaseStatusConfirmed},
		{domain.PurchaseStatusMasterCreated, domain.PurchaseStatusBlockedMissingMaster},
	}
	for _, edge := range allowed {
		assert.True(t, edge.from.CanTransitionTo(edge.to), "%s -> %s", edge.from, edge.to)
	}

	forbidden := []struct {
		from domain.PurchaseStatus
		to   domain.PurchaseStatus
	}{
		{domain.PurchaseStatusSubmitted, domain.PurchaseStatusReserved},
		{domain.PurchaseStatusSubmitted, domain.PurchaseStatusAbandoned},
		{domain.PurchaseStatusAwaitingFulfillment, domain.PurchaseStatusSubmitted},
		{domain.PurchaseStatusAwaitingFulfillment, domain.PurchaseStatusFailed},
		{domain.PurchaseStatusMasterCreated, domain.PurchaseStatusAwaitingFulfillment},
		{domain.PurchaseStatusConfirmed, domain.PurchaseStatusMinting},
		{domain.PurchaseStatusFailed, domain.PurchaseStatusReserved},
		{domain.PurchaseStatusAbandoned, domain.PurchaseStatusReserved},
		{domain.PurchaseStatusBlockedMissingMaster, domain.PurchaseStatusMinting},
	}
	for _, edge := range forbidden {
		assert.False(t, edge.from.CanTransitionTo(edge.to), "%s -> %s", edge.from, edge.to)
	}
}

func TestPurchaseStatus_Classification(t *testing.T) {
	terminal := map[domain.PurchaseStatus]bool{
		domain.PurchaseStatusConfirmed:            true,
		domain.PurchaseStatusFailed:               true,
		domain.PurchaseStatusAbandoned:            true,
		domain.PurchaseStatusBlockedMissingMaster: true,
	}
	for _, s := range domain.AllPurchaseStatuses {
		assert.Equal(t, terminal[s], s.IsTerminal(), "terminal %s", s)
	}

	assert.False(t, domain.PurchaseStatus("bogus").IsTerminal())
	assert.False(t, domain.PurchaseStatus("bogus").Valid())

	assert.True(t, domain.PurchaseStatusAwaitingFulfillment.IsFulfillable())
	assert.True(t, domain.PurchaseStatusMasterCreated.IsFulfillable())
	assert.False(t, domain.PurchaseStatusMinting.IsFulfillable())
	assert.False(t, domain.PurchaseStatusSubmitted.IsFulfillable())

	assert.True(t, domain.PurchaseStatusReserved.HoldsReservation())
	assert.True(t, domain.PurchaseStatusSubmitted.HoldsReservation())
	assert.False(t, domain.PurchaseStatusAwaitingFulfillment.HoldsReservation())

	assert.ElementsMatch(t,
		[]domain.PurchaseStatus{domain.PurchaseStatusReserved, domain.PurchaseStatusSubmitted},
		domain.PredecessorsOf(domain.PurchaseStatusFailed))
}

// Once payment is settled a purchase never goes back to a pre-payment status, and terminal
// statuses never move, whatever sequence of transitions is attempted.
func TestPurchaseStatus_MonotonicWalk(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("random walks never regress", prop.ForAll(
		func(choices []int) bool {
			current := domain.PurchaseStatusReserved
			paid := false
			for _, c := range choices {
				next := domain.AllPurchaseStatuses[c%len(domain.AllPurchaseStatuses)]
				if !current.CanTransitionTo(next) {
					continue
				}
				if current.IsTerminal() {
					return false
				}
				current = next
				if current.PaymentSettled() {
					paid = true
				}
				if paid && (current == domain.PurchaseStatusReserved || current == domain.PurchaseStatusSubmitted ||
					current == domain.PurchaseStatusFailed || current == domain.PurchaseStatusAbandoned) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

func TestCollectionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, domain.CollectionStatusPending.CanTransitionTo(domain.CollectionStatusConfirmed))
	assert.True(t, domain.CollectionStatusPending.CanTransitionTo(domain.CollectionStatusFailed))
	assert.True(t, domain.CollectionStatusFailed.CanTransitionTo(domain.CollectionStatusPending))
	assert.False(t, domain.CollectionStatusConfirmed.CanTransitionTo(domain.CollectionStatusPending))
	assert.False(t, domain.CollectionStatusConfirmed.CanTransitionTo(domain.CollectionStatusFailed))
	assert.False(t, domain.CollectionStatusFailed.CanTransitionTo(domain.CollectionStatusConfirmed))
}

func TestValidateSignatureAndWallet(t *testing.T) {
	// 64 and 32 bytes of 0x01 encoded in base58
	sig := "2AXDGYSE4f2sz7tvMMzyHvUfcoJmxudvdhBcmiUSo6ijwfYmfZYsKRxboQMPh3R4kUhXRVdtSXFXMheka4Rc4P2"
	wallet := "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"

	assert.NoError(t, domain.ValidateSignature(sig))
	assert.NoError(t, domain.ValidateWallet(wallet))

	assert.ErrorIs(t, domain.ValidateSignature(""), domain.ErrInvalidSignature)
	assert.ErrorIs(t, domain.ValidateSignature(wallet), domain.ErrInvalidSignature)
	assert.ErrorIs(t, domain.ValidateSignature("0OIl"), domain.ErrInvalidSignature)
	assert.ErrorIs(t, domain.ValidateWallet(sig), domain.ErrInvalidWallet)
	assert.ErrorIs(t, domain.ValidateWallet("not-base58!"), domain.ErrInvalidWallet)
}

func TestTxStatus(t *testing.T) {
	assert.True(t, domain.TxStatusConfirmed.Settled())
	assert.True(t, domain.TxStatusFinalized.Settled())
	assert.False(t, domain.TxStatusProcessed.Settled())
	assert.False(t, domain.TxStatusFailed.Settled())
	assert.False(t, domain.TxStatusNotFound.Settled())
	assert.True(t, domain.TxStatusFailed.Valid())
	assert.False(t, domain.TxStatus("weird").Valid())
}
