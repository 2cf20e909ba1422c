package prune

import (
	"path/filepath"
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github.com/feedbackcoin/fbcd/blockchain"
	"github.com/feedbackcoin/fbcd/blockfile"
	"github.com/feedbackcoin/fbcd/dbaccess"
	"github.com/feedbackcoin/fbcd/logger"
)

const (
	// indexDirName and blocksDirName are the data directory entries holding
	// the block index database and the flat block files respectively.
	indexDirName  = "index"
	blocksDirName = "blocks"
)

// Status is the terminal outcome of a purge run. The three outcomes are kept
// distinguishable so callers embedding the purge as a library operation can
// tell "nothing to do" apart from a hard failure.
type Status int

const (
	// StatusSuccess means the purge ran to completion. Individual records
	// or files may still have been skipped; see the Result counts.
	StatusSuccess Status = iota

	// StatusInsufficientHistory means the chain tip does not exceed the
	// retention window, so there is no prunable history. Nothing was
	// mutated.
	StatusInsufficientHistory

	// StatusLockUnavailable means another process holds the data directory
	// lock. Nothing was mutated.
	StatusLockUnavailable
)

// String returns a human-readable form of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInsufficientHistory:
		return "not enough history to prune"
	case StatusLockUnavailable:
		return "data directory lock unavailable"
	}
	return "unknown status"
}

// Result describes the outcome of a purge run.
type Result struct {
	Status Status

	// RecordsPruned is the number of block index records whose data/undo
	// flags were cleared and whose transactions were erased from the
	// transaction index.
	RecordsPruned int

	// RecordsSkipped is the number of eligible records left untouched
	// because their block could not be read or their updated index record
	// could not be persisted. Re-running the purge retries them.
	RecordsSkipped int

	// TxEntriesErased is the total number of transaction index erasures
	// issued for pruned blocks.
	TxEntriesErased int

	// FilesDeleted and FilesKept count the store files removed by the
	// garbage collection phase and the matching-convention files it left
	// in place.
	FilesDeleted int
	FilesKept    int
}

// Config holds the parameters of a purge run.
type Config struct {
	// DataDir is the node's data directory.
	DataDir string

	// MinHistory is the retention window: the minimum number of blocks
	// below the tip that must remain fully retrievable to support
	// reorganization and historical queries.
	MinHistory uint64

	// Net is the network magic the block files are framed with.
	Net wire.BitcoinNet

	// Interrupt, when non-nil, stops the erase phase between records once
	// it is closed. The records not yet processed are left for a re-run
	// and their files are kept. May be nil.
	Interrupt <-chan struct{}
}

// Run performs a full purge of prunable history from the data directory:
// it erases the transaction index entries of every block outside the
// retention window, clears the data/undo flags on those blocks' index
// records, and deletes the blk/rev files no retained block depends on.
//
// The run holds an exclusive lock on the data directory for its entire
// duration and is safe to re-run after an interruption; every mutation it
// performs is idempotent.
func Run(cfg *Config) (*Result, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "prune.Run")
	defer onEnd()

	lock, err := acquireDirLock(cfg.DataDir)
	if err != nil {
		if errors.Is(err, ErrLockUnavailable) {
			log.Errorf("%s", err)
			return &Result{Status: StatusLockUnavailable}, nil
		}
		return nil, err
	}
	defer lock.release()

	log.Info("Loading databases")
	db, err := dbaccess.New(filepath.Join(cfg.DataDir, indexDirName))
	if err != nil {
		return nil, errors.Wrap(err, "error loading block database")
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Warnf("Could not close block database: %s", err)
		}
	}()

	index, err := blockchain.LoadBlockIndex(db)
	if err != nil {
		return nil, errors.Wrap(err, "error loading block index")
	}
	chain, err := blockchain.ActivateBestChain(index)
	if err != nil {
		return nil, errors.Wrap(err, "could not activate best chain")
	}

	log.Infof("Tip is block %d", chain.Height())
	if chain.Height() <= cfg.MinHistory {
		log.Info("Not enough history to prune")
		return &Result{Status: StatusInsufficientHistory}, nil
	}

	store, err := blockfile.NewStore(filepath.Join(cfg.DataDir, blocksDirName), cfg.Net)
	if err != nil {
		return nil, errors.Wrap(err, "could not open blocks directory")
	}

	result := &Result{Status: StatusSuccess}

	neededFiles, deletable := selectPrunable(index, chain.Height(), cfg.MinHistory)
	eraseTransactions(db, index, store, deletable, neededFiles, cfg.Interrupt, result)
	collectFiles(store, neededFiles, result)

	log.Infof("Purge finished: %d records pruned, %d skipped, %d tx entries "+
		"erased, %d files deleted, %d files kept", result.RecordsPruned,
		result.RecordsSkipped, result.TxEntriesErased, result.FilesDeleted,
		result.FilesKept)
	return result, nil
}

// selectPrunable scans the full block index twice and computes the set of
// store file numbers that must be retained alongside the records eligible for
// pruning.
//
// The first pass records the file number of every block inside the retention
// window. Retention works at file granularity: a file holding many blocks is
// needed as soon as any retained block uses it, even partially, which is why
// the first pass must see the complete index before the second pass filters
// by it.
//
// The second pass collects the records below the retention window that still
// have data or undo stored and whose file is not needed. The two outputs are
// therefore disjoint by file number.
func selectPrunable(index *blockchain.BlockIndex, tipHeight uint64,
	minHistory uint64) (neededFiles map[uint32]struct{}, deletable []*blockchain.BlockNode) {

	neededFiles = make(map[uint32]struct{})
	_ = index.ForEach(func(node *blockchain.BlockNode) error {
		if node.Height()+minHistory >= tipHeight {
			neededFiles[node.BlockFile()] = struct{}{}
		}
		return nil
	})

	_ = index.ForEach(func(node *blockchain.BlockNode) error {
		if node.Height()+minHistory >= tipHeight {
			return nil
		}
		status := index.NodeStatus(node)
		if !status.HaveData() && !status.HaveUndo() {
			return nil
		}
		if _, fileNeeded := neededFiles[node.BlockFile()]; fileNeeded {
			return nil
		}
		deletable = append(deletable, node)
		return nil
	})

	// Ascending height keeps the per-record log readable; the erase phase
	// itself is order-independent.
	sort.Slice(deletable, func(i, j int) bool {
		return deletable[i].Height() < deletable[j].Height()
	})

	log.Debugf("Selected %d prunable records, %d files needed",
		len(deletable), len(neededFiles))
	return neededFiles, deletable
}
