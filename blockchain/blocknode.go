// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// BlockStatus is a bit field representing the validation and data-availability
// state of a block.
type BlockStatus byte

const (
	// StatusDataStored indicates that the block's payload is stored in one
	// of the blk files on disk.
	StatusDataStored BlockStatus = 1 << iota

	// StatusUndoStored indicates that the block's undo data is stored in
	// one of the rev files on disk.
	StatusUndoStored

	// StatusValid indicates that the block has been fully validated.
	StatusValid

	// StatusValidateFailed indicates that the block has failed validation.
	StatusValidateFailed

	// StatusInvalidAncestor indicates that one of the block's ancestors has
	// failed validation, thus the block is also invalid.
	StatusInvalidAncestor

	// StatusNone indicates that the block has no status flags set.
	//
	// NOTE: This must be defined last in order to avoid influencing iota.
	StatusNone BlockStatus = 0
)

// HaveData returns whether the block's payload is stored on disk.
func (status BlockStatus) HaveData() bool {
	return status&StatusDataStored != 0
}

// HaveUndo returns whether the block's undo data is stored on disk.
func (status BlockStatus) HaveUndo() bool {
	return status&StatusUndoStored != 0
}

// KnownValid returns whether the block is known to be valid. This will return
// false for a valid block that has not been fully validated yet.
func (status BlockStatus) KnownValid() bool {
	return status&StatusValid != 0
}

// KnownInvalid returns whether the block is known to be invalid. This may be
// because the block itself failed validation or any of its ancestors is
// invalid.
func (status BlockStatus) KnownInvalid() bool {
	return status&(StatusValidateFailed|StatusInvalidAncestor) != 0
}

// BlockNode represents a block within the block chain. The chain is stored
// into the block database. A node is never deleted once created; pruning only
// clears its data-availability flags so the shape of the chain remains
// reconstructible.
type BlockNode struct {
	// parent is the parent block for this node.
	parent *BlockNode

	// hash is the double sha 256 of the block.
	hash chainhash.Hash

	// height is the position in the block chain.
	height uint64

	// blockFile is the number of the blk/rev file pair that holds the
	// block's payload and undo data. Meaningless when neither
	// StatusDataStored nor StatusUndoStored is set.
	blockFile uint32

	// dataPos is the byte offset of the block's payload within its blk
	// file.
	dataPos uint32

	// undoPos is the byte offset of the block's undo data within its rev
	// file.
	undoPos uint32

	// Some fields from the block header to aid in reconstructing headers
	// from memory. These must be treated as immutable.
	version    int32
	bits       uint32
	nonce      uint32
	timestamp  int64
	merkleRoot chainhash.Hash

	// status is a bitfield representing the validation and storage state
	// of the block. The status field, unlike the other fields, may be
	// written to and so should only be accessed using the concurrent-safe
	// NodeStatus method on BlockIndex once the node has been added to the
	// index.
	status BlockStatus
}

// NewBlockNode returns a new block node for the given block header and parent
// node. This function is NOT safe for concurrent access. It must only be
// called when initially creating a node.
func NewBlockNode(blockHeader *wire.BlockHeader, parent *BlockNode) *BlockNode {
	node := &BlockNode{
		parent:     parent,
		hash:       blockHeader.BlockHash(),
		version:    blockHeader.Version,
		bits:       blockHeader.Bits,
		nonce:      blockHeader.Nonce,
		timestamp:  blockHeader.Timestamp.Unix(),
		merkleRoot: blockHeader.MerkleRoot,
	}
	if parent != nil {
		node.height = parent.height + 1
	}
	return node
}

// Hash returns the hash of the block this node represents.
func (node *BlockNode) Hash() *chainhash.Hash {
	return &node.hash
}

// Height returns the position of the block in the chain.
func (node *BlockNode) Height() uint64 {
	return node.height
}

// Parent returns the node's parent, or nil for the genesis block.
func (node *BlockNode) Parent() *BlockNode {
	return node.parent
}

// BlockFile returns the number of the blk/rev file pair holding the block's
// data on disk.
func (node *BlockNode) BlockFile() uint32 {
	return node.blockFile
}

// DataPos returns the byte offset of the block's payload within its blk file.
func (node *BlockNode) DataPos() uint32 {
	return node.dataPos
}

// UndoPos returns the byte offset of the block's undo data within its rev
// file.
func (node *BlockNode) UndoPos() uint32 {
	return node.undoPos
}

// SetDataPosition records where on disk the block's payload and undo data
// were written. This function is NOT safe for concurrent access.
func (node *BlockNode) SetDataPosition(blockFile, dataPos, undoPos uint32) {
	node.blockFile = blockFile
	node.dataPos = dataPos
	node.undoPos = undoPos
}

// Header constructs a block header from the node and returns it.
//
// This function is safe for concurrent access.
func (node *BlockNode) Header() *wire.BlockHeader {
	// No lock is needed because all accessed fields are immutable.
	prevHash := &chainhash.Hash{}
	if node.parent != nil {
		prevHash = &node.parent.hash
	}
	return &wire.BlockHeader{
		Version:    node.version,
		PrevBlock:  *prevHash,
		MerkleRoot: node.merkleRoot,
		Timestamp:  time.Unix(node.timestamp, 0),
		Bits:       node.bits,
		Nonce:      node.nonce,
	}
}

// isGenesis returns whether the current block is the genesis block.
func (node *BlockNode) isGenesis() bool {
	return node.height == 0 && node.parent == nil
}

// String returns a string that contains the block hash and height.
func (node *BlockNode) String() string {
	return fmt.Sprintf("%s (%d)", node.hash, node.height)
}
