// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/feedbackcoin/fbcd/dbaccess"
	"github.com/feedbackcoin/fbcd/logger"
)

// byteOrder is the preferred byte order used for serializing numeric fields
// for storage in the database.
var byteOrder = binary.LittleEndian

// -----------------------------------------------------------------------------
// The block index consists of an entry for every known block, keyed by the
// block hash. The serialized value format is:
//
//   <header><height><status><block file><data pos><undo pos>
//
//   Field         Type              Size
//   header
//     version     int32            4 bytes
//     parent      chainhash.Hash  32 bytes
//     merkle root chainhash.Hash  32 bytes
//     timestamp   int64            8 bytes
//     bits        uint32           4 bytes
//     nonce       uint32           4 bytes
//   height        uint64           8 bytes
//   status        BlockStatus      1 byte
//   block file    uint32           4 bytes
//   data pos      uint32           4 bytes
//   undo pos      uint32           4 bytes
//   -----
//   Total: 105 bytes
//
// The parent hash is all zeroes for the genesis block.
// -----------------------------------------------------------------------------

// blockIndexValueSize is the size in bytes of a serialized block index value.
const blockIndexValueSize = 105

// serializeBlockNode serializes the passed block node into a byte slice in
// the format described above.
func serializeBlockNode(node *BlockNode) ([]byte, error) {
	w := bytes.NewBuffer(make([]byte, 0, blockIndexValueSize))

	parentHash := &chainhash.Hash{}
	if node.parent != nil {
		parentHash = &node.parent.hash
	}

	err := binary.Write(w, byteOrder, node.version)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, err = w.Write(parentHash[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, err = w.Write(node.merkleRoot[:])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, field := range []interface{}{
		node.timestamp,
		node.bits,
		node.nonce,
		node.height,
		byte(node.status),
		node.blockFile,
		node.dataPos,
		node.undoPos,
	} {
		err = binary.Write(w, byteOrder, field)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	return w.Bytes(), nil
}

// deserializeBlockNode parses a block index value in the format described
// above into a block node. The node's parent pointer is left nil; the caller
// is expected to resolve the returned parent hash against the full index once
// every record has been read.
func deserializeBlockNode(blockHash []byte, serializedNode []byte) (node *BlockNode, parentHash *chainhash.Hash, err error) {
	if len(serializedNode) != blockIndexValueSize {
		return nil, nil, errors.Errorf("corrupt block index record for %x: "+
			"unexpected length %d", blockHash, len(serializedNode))
	}
	r := bytes.NewReader(serializedNode)

	node = &BlockNode{}
	err = node.hash.SetBytes(blockHash)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	parentHash = &chainhash.Hash{}
	var status byte
	for _, field := range []interface{}{
		&node.version,
		parentHash,
		&node.merkleRoot,
		&node.timestamp,
		&node.bits,
		&node.nonce,
		&node.height,
		&status,
		&node.blockFile,
		&node.dataPos,
		&node.undoPos,
	} {
		err = readElement(r, field)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "corrupt block index record for %x", blockHash)
		}
	}
	node.status = BlockStatus(status)

	return node, parentHash, nil
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *chainhash.Hash:
		_, err := io.ReadFull(r, e[:])
		return errors.WithStack(err)
	default:
		return errors.WithStack(binary.Read(r, byteOrder, element))
	}
}

// LoadBlockIndex loads every block index record from the database into an
// in-memory block index and resolves the parent links between the nodes.
// It fails if any record references a parent that is missing from the index.
func LoadBlockIndex(db *dbaccess.DatabaseContext) (*BlockIndex, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "LoadBlockIndex")
	defer onEnd()

	index := NewBlockIndex(db)
	parentHashes := make(map[chainhash.Hash]chainhash.Hash)

	err := dbaccess.ForEachIndexBlock(db, func(blockHash []byte, serializedNode []byte) error {
		node, parentHash, err := deserializeBlockNode(blockHash, serializedNode)
		if err != nil {
			return err
		}
		index.AddNode(node)
		parentHashes[node.hash] = *parentHash
		return nil
	})
	if err != nil {
		return nil, err
	}

	// All records are in memory, so the back-references can now be
	// resolved. A parent hash of all zeroes marks the genesis block.
	var zeroHash chainhash.Hash
	for hash, parentHash := range parentHashes {
		if parentHash == zeroHash {
			continue
		}
		hash, parentHash := hash, parentHash
		node := index.LookupNode(&hash)
		parent := index.LookupNode(&parentHash)
		if parent == nil {
			return nil, errors.Errorf("block %s references unknown parent %s",
				hash, parentHash)
		}
		node.parent = parent
	}

	log.Debugf("Loaded %d block index records", index.Len())
	return index, nil
}
