package prune

import (
	"github.com/btcsuite/btcutil"

	"github.com/feedbackcoin/fbcd/blockchain"
	"github.com/feedbackcoin/fbcd/blockfile"
	"github.com/feedbackcoin/fbcd/dbaccess"
)

// eraseTransactions walks the eligible records and, for each one, erases its
// transactions from the transaction index, clears the record's data/undo
// flags and durably persists the updated record. The persisted write is the
// commit point: it must land before the record's backing file may be removed,
// so an interruption leaves at worst a stale file on disk and never a
// dangling index reference.
//
// A record whose block can't be read or whose updated record can't be
// persisted is skipped and its file number is put back into neededFiles so
// the garbage collection phase keeps the file around for a re-run.
//
// Closing interrupt stops the walk between records. The remaining records are
// counted as skipped and their files are kept, so an interrupted purge leaves
// the data directory in the same state as a crashed one: fully consistent and
// finishable by a re-run.
func eraseTransactions(db *dbaccess.DatabaseContext, index *blockchain.BlockIndex,
	store *blockfile.Store, deletable []*blockchain.BlockNode,
	neededFiles map[uint32]struct{}, interrupt <-chan struct{}, result *Result) {

	for i, node := range deletable {
		select {
		case <-interrupt:
			log.Infof("Interrupt - leaving %d records for a re-run",
				len(deletable)-i)
			for _, remaining := range deletable[i:] {
				neededFiles[remaining.BlockFile()] = struct{}{}
				result.RecordsSkipped++
			}
			return
		default:
		}
		// The physical file must still exist at this point; the file
		// garbage collection phase runs strictly after this one.
		block, err := store.ReadBlock(node.BlockFile(), node.DataPos())
		if err != nil {
			log.Errorf("Could not read block %s for pruning, skipping "+
				"record: %s", node, err)
			neededFiles[node.BlockFile()] = struct{}{}
			result.RecordsSkipped++
			continue
		}

		erased, err := eraseBlockTransactions(db, block)
		result.TxEntriesErased += erased
		if err != nil {
			log.Errorf("Could not erase all transactions of block %s, "+
				"skipping record - its remaining transaction index entries "+
				"are stale until the purge is re-run: %s", node, err)
			neededFiles[node.BlockFile()] = struct{}{}
			result.RecordsSkipped++
			continue
		}

		index.UnsetStatusFlags(node, blockchain.StatusDataStored|blockchain.StatusUndoStored)
		err = index.FlushNode(node)
		if err != nil {
			// Revert the in-memory flags so the index keeps mirroring
			// the database; the record's transaction index entries are
			// already gone but a re-run re-erases them harmlessly.
			index.SetStatusFlags(node, blockchain.StatusDataStored|blockchain.StatusUndoStored)
			log.Errorf("Could not persist pruned record for block %s, "+
				"skipping record: %s", node, err)
			neededFiles[node.BlockFile()] = struct{}{}
			result.RecordsSkipped++
			continue
		}

		log.Debugf("Pruned block %s: %d transaction index entries erased",
			node, erased)
		result.RecordsPruned++
	}
}

// eraseBlockTransactions erases every transaction of the given block from the
// transaction index. Erasing a transaction that has no entry is a no-op, so
// re-running the erasure after a partial failure is harmless.
func eraseBlockTransactions(db *dbaccess.DatabaseContext, block *btcutil.Block) (erased int, err error) {
	for _, tx := range block.Transactions() {
		txID := tx.Hash()
		err := dbaccess.EraseTxIndexEntry(db, txID[:])
		if err != nil {
			return erased, err
		}
		erased++
	}
	return erased, nil
}
