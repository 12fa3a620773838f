package ddb

import "fmt"

// Key attribute and index names of the single-table layout.
const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"
)

// Constant index partitions for whole-collection listings.
const (
	allUsersPartition    = "users"
	allTrackersPartition = "trackers"
)

// Sort key prefixes. "txn#" and "txn.shared#" are disjoint prefixes, so
// begins_with filters never bleed between personal and shared
// transactions.
const (
	transactionPrefix       = "txn#"
	sharedTransactionPrefix = "txn.shared#"
	trackerPrefix           = "tracker#"
)

// lastSortChar sorts after every character that can appear in an id,
// making BETWEEN bounds inclusive of the upper date.
const lastSortChar = "￿"

// BuildUserKey constructs a user key: user#{id}. It serves as both
// partition and sort key of the primary user item.
func BuildUserKey(userID string) string {
	return fmt.Sprintf("user#%s", userID)
}

// BuildTransactionSK constructs a transaction sort key: txn#{id}.
func BuildTransactionSK(txnID string) string {
	return fmt.Sprintf("txn#%s", txnID)
}

// BuildTransactionDateSK constructs the index sort key of a
// transaction: txn#{date}#{id}. The date is zero-padded epoch seconds
// so lexicographic order on the index equals chronological order.
func BuildTransactionDateSK(date int64, txnID string) string {
	return fmt.Sprintf("txn#%010d#%s", date, txnID)
}

// BuildSharedTransactionSK constructs a shared transaction sort key:
// txn.shared#{id}.
func BuildSharedTransactionSK(txnID string) string {
	return fmt.Sprintf("txn.shared#%s", txnID)
}

// BuildSharedTransactionDateSK constructs the index sort key of a
// shared transaction: txn.shared#{date}#{id}.
func BuildSharedTransactionDateSK(date int64, txnID string) string {
	return fmt.Sprintf("txn.shared#%010d#%s", date, txnID)
}

// BuildTrackerKey constructs a tracker key: tracker#{id}. It is the
// partition and sort key of the canonical copy and the sort key of the
// per-member copies.
func BuildTrackerKey(trackerID string) string {
	return fmt.Sprintf("tracker#%s", trackerID)
}

// transactionDateRange returns inclusive index sort key bounds covering
// every transaction with from <= date <= to.
func transactionDateRange(from, to int64) (lo, hi string) {
	return fmt.Sprintf("txn#%010d#", from), fmt.Sprintf("txn#%010d#%s", to, lastSortChar)
}

// sharedTransactionDateRange is the shared-transaction equivalent of
// transactionDateRange.
func sharedTransactionDateRange(from, to int64) (lo, hi string) {
	return fmt.Sprintf("txn.shared#%010d#", from), fmt.Sprintf("txn.shared#%010d#%s", to, lastSortChar)
}
