package dbaccess

// The transaction index consists of an entry for every transaction whose
// containing block is still stored on disk. Each entry maps a transaction ID
// to the location of its containing block, so historical transactions can be
// looked up without scanning the block files.
var txIndexBucket = MakeBucket([]byte("tx-index"))

// PutTxIndexEntry stores the location data of the transaction with the given
// txID.
func PutTxIndexEntry(context *DatabaseContext, txID []byte, serializedData []byte) error {
	key := txIndexBucket.Key(txID)
	return context.put(key, serializedData)
}

// HasTxIndexEntry returns whether the transaction with the given txID has an
// entry in the transaction index.
func HasTxIndexEntry(context *DatabaseContext, txID []byte) (bool, error) {
	key := txIndexBucket.Key(txID)
	return context.has(key)
}

// FetchTxIndexEntry returns the location data of the transaction with the
// given txID. Returns ErrNotFound if there's no entry for this txID.
func FetchTxIndexEntry(context *DatabaseContext, txID []byte) ([]byte, error) {
	key := txIndexBucket.Key(txID)
	return context.get(key)
}

// EraseTxIndexEntry permanently removes the entry of the transaction with the
// given txID from the transaction index. Erasing a transaction that has no
// entry is a no-op, which keeps erasure idempotent under re-runs.
func EraseTxIndexEntry(context *DatabaseContext, txID []byte) error {
	key := txIndexBucket.Key(txID)
	return context.delete(key)
}
