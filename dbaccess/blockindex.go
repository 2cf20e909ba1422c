package dbaccess

import (
	"github.com/pkg/errors"
	ldbUtil "github.com/syndtr/goleveldb/leveldb/util"
)

var blockIndexBucket = MakeBucket([]byte("block-index"))

// StoreIndexBlock stores a block in block-index representation to the
// database. The write is synced to disk before this function returns, so a
// stored record survives an interruption of whatever operation follows it.
func StoreIndexBlock(context *DatabaseContext, blockHash []byte, serializedNode []byte) error {
	key := blockIndexBucket.Key(blockHash)
	return context.put(key, serializedNode)
}

// HasIndexBlock returns whether a block-index record exists for the given
// block hash.
func HasIndexBlock(context *DatabaseContext, blockHash []byte) (bool, error) {
	key := blockIndexBucket.Key(blockHash)
	return context.has(key)
}

// FetchIndexBlock returns the block-index representation of the block with
// the given hash. Returns ErrNotFound if no record exists.
func FetchIndexBlock(context *DatabaseContext, blockHash []byte) ([]byte, error) {
	key := blockIndexBucket.Key(blockHash)
	serializedNode, err := context.get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch index block %x", blockHash)
	}
	return serializedNode, nil
}

// ForEachIndexBlock iterates over all the blocks-index records that have been
// previously added to the database and calls fn with each record's block hash
// and serialized form. Iteration stops on the first error fn returns.
func ForEachIndexBlock(context *DatabaseContext, fn func(blockHash []byte, serializedNode []byte) error) error {
	prefix := blockIndexBucket.Path()
	iterator := context.ldb.NewIterator(ldbUtil.BytesPrefix(prefix), nil)
	defer iterator.Release()

	for iterator.Next() {
		blockHash := iterator.Key()[len(prefix):]
		err := fn(blockHash, iterator.Value())
		if err != nil {
			return err
		}
	}
	return errors.WithStack(iterator.Error())
}
