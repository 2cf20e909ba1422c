// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/feedbackcoin/fbcd/dbaccess"
)

// BlockIndex provides facilities for keeping track of an in-memory index of
// the block chain. Although the name block chain suggests a single chain of
// blocks, it is actually a tree-shaped structure where any node can have
// multiple children. However, there can only be one active branch which does
// indeed form a chain from the tip all the way back to the genesis block.
type BlockIndex struct {
	// The following fields are set when the instance is created and can't
	// be changed afterwards, so there is no need to protect them with a
	// separate mutex.
	db *dbaccess.DatabaseContext

	sync.RWMutex
	index map[chainhash.Hash]*BlockNode
}

// NewBlockIndex returns a new empty instance of a block index. The index will
// be dynamically populated as block nodes are loaded from the database and
// manually added.
func NewBlockIndex(db *dbaccess.DatabaseContext) *BlockIndex {
	return &BlockIndex{
		db:    db,
		index: make(map[chainhash.Hash]*BlockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided
// hash.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.RLock()
	defer bi.RUnlock()
	_, hasBlock := bi.index[*hash]
	return hasBlock
}

// LookupNode returns the block node identified by the provided hash. It will
// return nil if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) LookupNode(hash *chainhash.Hash) *BlockNode {
	bi.RLock()
	defer bi.RUnlock()
	return bi.index[*hash]
}

// AddNode adds the provided node to the block index. Duplicate entries are
// not checked so it is up to the caller to avoid adding them.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) AddNode(node *BlockNode) {
	bi.Lock()
	defer bi.Unlock()
	bi.index[node.hash] = node
}

// Len returns the number of nodes in the block index.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) Len() int {
	bi.RLock()
	defer bi.RUnlock()
	return len(bi.index)
}

// ForEach calls fn for every node in the block index, in no particular order.
// Iteration stops on the first error fn returns, and that error is returned
// to the caller.
//
// This function is safe for concurrent access, but fn must not mutate the
// index.
func (bi *BlockIndex) ForEach(fn func(node *BlockNode) error) error {
	bi.RLock()
	defer bi.RUnlock()
	for _, node := range bi.index {
		err := fn(node)
		if err != nil {
			return err
		}
	}
	return nil
}

// NodeStatus provides concurrent-safe access to the status field of a node.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) NodeStatus(node *BlockNode) BlockStatus {
	bi.RLock()
	defer bi.RUnlock()
	return node.status
}

// SetStatusFlags flips the provided status flags on the block node to on,
// regardless of whether they were on or off previously. This does not unset
// any flags currently on.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) SetStatusFlags(node *BlockNode, flags BlockStatus) {
	bi.Lock()
	defer bi.Unlock()
	node.status |= flags
}

// UnsetStatusFlags flips the provided status flags on the block node to off,
// regardless of whether they were on or off previously.
//
// This function is safe for concurrent access.
func (bi *BlockIndex) UnsetStatusFlags(node *BlockNode, flags BlockStatus) {
	bi.Lock()
	defer bi.Unlock()
	node.status &^= flags
}

// FlushNode durably writes the provided node's current state to the block
// index database. It must be called after every status mutation that needs to
// survive a restart.
func (bi *BlockIndex) FlushNode(node *BlockNode) error {
	serializedNode, err := serializeBlockNode(node)
	if err != nil {
		return err
	}
	return dbaccess.StoreIndexBlock(bi.db, node.hash[:], serializedNode)
}
