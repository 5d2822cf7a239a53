package domain

// PurchaseStatus is the state of a paid edition acquisition
type PurchaseStatus string

const (
	PurchaseStatusReserved            PurchaseStatus = "reserved"
	PurchaseStatusSubmitted           PurchaseStatus = "submitted"
	PurchaseStatusAwaitingFulfillment PurchaseStatus = "awaiting_fulfillment"
	PurchaseStatusMinting             PurchaseStatus = "minting"
	PurchaseStatusMasterCreated       PurchaseStatus = "master_created"
	PurchaseStatusConfirmed           PurchaseStatus = "confirmed"
	PurchaseStatusFailed              PurchaseStatus = "failed"
	PurchaseStatusAbandoned           PurchaseStatus = "abandoned"
	// PurchaseStatusBlockedMissingMaster means payment settled but the post's master edition
	// record is inconsistent. Requires operator action.
	PurchaseStatusBlockedMissingMaster PurchaseStatus = "blocked_missing_master"
)

// AllPurchaseStatuses lists every purchase status
var AllPurchaseStatuses = []PurchaseStatus{
	PurchaseStatusReserved,
	PurchaseStatusSubmitted,
	PurchaseStatusAwaitingFulfillment,
	PurchaseStatusMinting,
	PurchaseStatusMasterCreated,
	PurchaseStatusConfirmed,
	PurchaseStatusFailed,
	PurchaseStatusAbandoned,
	PurchaseStatusBlockedMissingMaster,
}

// purchaseTransitions is the closed transition graph of the purchase machine
var purchaseTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchaseStatusReserved: {
		PurchaseStatusSubmitted,
		PurchaseStatusAwaitingFulfillment,
		PurchaseStatusFailed,
		PurchaseStatusAbandoned,
	},
	PurchaseStatusSubmitted: {
		PurchaseStatusAwaitingFulfillment,
		PurchaseStatusFailed,
	},
	PurchaseStatusAwaitingFulfillment: {
		PurchaseStatusMinting,
		PurchaseStatusBlockedMissingMaster,
	},
	PurchaseStatusMinting: {
		PurchaseStatusMasterCreated,
		PurchaseStatusConfirmed,
		PurchaseStatusAwaitingFulfillment,
		PurchaseStatusBlockedMissingMaster,
	},
	PurchaseStatusMasterCreated: {
		PurchaseStatusMinting,
		PurchaseStatusConfirmed,
		PurchaseStatusBlockedMissingMaster,
	},
}

// Valid reports whether s is a known purchase status
func (s PurchaseStatus) Valid() bool {
	for _, status := range AllPurchaseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s PurchaseStatus) IsTerminal() bool {
	_, ok := purchaseTransitions[s]
	return s.Valid() && !ok
}

// IsFulfillable reports whether a fulfillment claim may be taken in this status
func (s PurchaseStatus) IsFulfillable() bool {
	return s == PurchaseStatusAwaitingFulfillment || s == PurchaseStatusMasterCreated
}

// PaymentSettled reports whether the payment for the purchase has been observed on-chain
func (s PurchaseStatus) PaymentSettled() bool {
	switch s {
	case PurchaseStatusAwaitingFulfillment,
		PurchaseStatusMinting,
		PurchaseStatusMasterCreated,
		PurchaseStatusConfirmed,
		PurchaseStatusBlockedMissingMaster:
		return true
	}
	return false
}

// HoldsReservation reports whether a purchase in this status still owns a supply slot that
// must be released if it fails before minting
func (s PurchaseStatus) HoldsReservation() bool {
	return s == PurchaseStatusReserved || s == PurchaseStatusSubmitted
}

// CanTransitionTo reports whether the graph allows s -> next
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, candidate := range purchaseTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// PredecessorsOf returns every status with an edge into next
func PredecessorsOf(next PurchaseStatus) []PurchaseStatus {
	var out []PurchaseStatus
	for _, status := range AllPurchaseStatuses {
		if status.CanTransitionTo(next) {
			out = append(out, status)
		}
	}
	return out
}

// CollectionStatus is the state of a free collectible acquisition
type CollectionStatus string

const (
	CollectionStatusPending   CollectionStatus = "pending"
	CollectionStatusConfirmed CollectionStatus = "confirmed"
	CollectionStatusFailed    CollectionStatus = "failed"
)

// Valid reports whether s is a known collection status
func (s CollectionStatus) Valid() bool {
	return s == CollectionStatusPending || s == CollectionStatusConfirmed || s == CollectionStatusFailed
}

// CanTransitionTo reports whether the collection machine allows s -> next.
// failed -> pending is the retry path.
func (s CollectionStatus) CanTransitionTo(next CollectionStatus) bool {
	switch s {
	case CollectionStatusPending:
		return next == CollectionStatusConfirmed || next == CollectionStatusFailed
	case CollectionStatusFailed:
		return next == CollectionStatusPending
	}
	return false
}
