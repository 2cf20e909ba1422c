// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/pkg/errors"
)

// Chain is a read-only view of the currently-active best chain, from the
// genesis block up to the tip. It is rebuilt by ActivateBestChain and is not
// updated afterwards.
type Chain struct {
	tip *BlockNode
}

// Tip returns the block node of the chain tip.
func (c *Chain) Tip() *BlockNode {
	return c.tip
}

// Height returns the height of the chain tip.
func (c *Chain) Height() uint64 {
	return c.tip.height
}

// Contains returns whether the given node participates in the active chain.
func (c *Chain) Contains(node *BlockNode) bool {
	for n := c.tip; n != nil; n = n.parent {
		if n == node {
			return true
		}
		if n.height < node.height {
			break
		}
	}
	return false
}

// ActivateBestChain selects the best known chain out of the loaded block
// index and returns a view of it. The best chain is the one whose tip has the
// greatest height among tips that are not known to be invalid and whose
// ancestry walks all the way back to the genesis block.
//
// Full chain validation is the responsibility of the consensus layer; this
// selection only re-establishes the view a previously-validated index
// described.
func ActivateBestChain(index *BlockIndex) (*Chain, error) {
	var tip *BlockNode
	err := index.ForEach(func(node *BlockNode) error {
		if node.status.KnownInvalid() {
			return nil
		}
		if tip == nil || node.height > tip.height {
			tip = node
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return nil, errors.New("cannot activate best chain: the block index is empty")
	}

	// Make sure the selected tip connects all the way down to genesis.
	// LoadBlockIndex rejects dangling parent references, so a failure here
	// means the index held a forest rather than a tree.
	expectedHeight := tip.height
	for node := tip; !node.isGenesis(); node = node.parent {
		if node.parent == nil || node.height != expectedHeight {
			return nil, errors.Errorf("best chain tip %s does not connect "+
				"to genesis: broken link at %s", tip, node)
		}
		expectedHeight--
	}

	log.Infof("Chain tip is block %s", tip)
	return &Chain{tip: tip}, nil
}
