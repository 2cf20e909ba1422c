package blockchain

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/feedbackcoin/fbcd/dbaccess"
)

func setupTestDB(t *testing.T, testName string) (*dbaccess.DatabaseContext, func()) {
	path, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	db, err := dbaccess.New(path)
	if err != nil {
		t.Fatalf("%s: dbaccess.New unexpectedly failed: %s", testName, err)
	}
	teardown := func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return db, teardown
}

// testHeader returns a block header whose hash is unique per (height, nonce).
func testHeader(height uint64, parent *BlockNode) *wire.BlockHeader {
	prevHash := chainhash.Hash{}
	if parent != nil {
		prevHash = *parent.Hash()
	}
	var merkleRoot chainhash.Hash
	binary.LittleEndian.PutUint64(merkleRoot[:8], height)
	return &wire.BlockHeader{
		Version:    1,
		PrevBlock:  prevHash,
		MerkleRoot: merkleRoot,
		Timestamp:  time.Unix(1355000000+int64(height), 0),
		Bits:       0x207fffff,
		Nonce:      uint32(height),
	}
}

// buildTestChain creates a linked chain of the given length, assigns each
// node a data position and marks its data and undo as stored.
func buildTestChain(length uint64) []*BlockNode {
	nodes := make([]*BlockNode, 0, length)
	var parent *BlockNode
	for height := uint64(0); height < length; height++ {
		node := NewBlockNode(testHeader(height, parent), parent)
		node.SetDataPosition(uint32(height/10), uint32(height%10)*100, uint32(height%10)*10)
		node.status = StatusDataStored | StatusUndoStored | StatusValid
		nodes = append(nodes, node)
		parent = node
	}
	return nodes
}

func TestBlockNodeSerialization(t *testing.T) {
	nodes := buildTestChain(2)
	node := nodes[1]

	serializedNode, err := serializeBlockNode(node)
	if err != nil {
		t.Fatalf("TestBlockNodeSerialization: serializeBlockNode unexpectedly "+
			"failed: %s", err)
	}
	if len(serializedNode) != blockIndexValueSize {
		t.Fatalf("TestBlockNodeSerialization: serialized record is %d bytes, "+
			"want %d", len(serializedNode), blockIndexValueSize)
	}

	deserializedNode, parentHash, err := deserializeBlockNode(node.hash[:], serializedNode)
	if err != nil {
		t.Fatalf("TestBlockNodeSerialization: deserializeBlockNode unexpectedly "+
			"failed: %s", err)
	}

	if *parentHash != nodes[0].hash {
		t.Errorf("TestBlockNodeSerialization: deserialized parent hash is %s, "+
			"want %s", parentHash, nodes[0].hash)
	}
	if deserializedNode.hash != node.hash ||
		deserializedNode.height != node.height ||
		deserializedNode.status != node.status ||
		deserializedNode.blockFile != node.blockFile ||
		deserializedNode.dataPos != node.dataPos ||
		deserializedNode.undoPos != node.undoPos ||
		deserializedNode.version != node.version ||
		deserializedNode.bits != node.bits ||
		deserializedNode.nonce != node.nonce ||
		deserializedNode.timestamp != node.timestamp ||
		deserializedNode.merkleRoot != node.merkleRoot {
		t.Errorf("TestBlockNodeSerialization: deserialized node does not match "+
			"the original.\nGot: %s\nWant: %s", spew.Sdump(deserializedNode),
			spew.Sdump(node))
	}
}

func TestDeserializeBlockNodeErrors(t *testing.T) {
	nodes := buildTestChain(1)
	serializedNode, err := serializeBlockNode(nodes[0])
	if err != nil {
		t.Fatalf("TestDeserializeBlockNodeErrors: serializeBlockNode "+
			"unexpectedly failed: %s", err)
	}

	// A truncated record must be rejected, not partially parsed.
	_, _, err = deserializeBlockNode(nodes[0].hash[:], serializedNode[:len(serializedNode)-1])
	if err == nil {
		t.Errorf("TestDeserializeBlockNodeErrors: expected an error for a " +
			"truncated record")
	}
	_, _, err = deserializeBlockNode(nodes[0].hash[:], append(serializedNode, 0))
	if err == nil {
		t.Errorf("TestDeserializeBlockNodeErrors: expected an error for an " +
			"oversized record")
	}
}

func TestLoadBlockIndex(t *testing.T) {
	db, teardown := setupTestDB(t, "TestLoadBlockIndex")
	defer teardown()

	nodes := buildTestChain(5)
	index := NewBlockIndex(db)
	for _, node := range nodes {
		index.AddNode(node)
		err := index.FlushNode(node)
		if err != nil {
			t.Fatalf("TestLoadBlockIndex: FlushNode unexpectedly failed: %s", err)
		}
	}

	loadedIndex, err := LoadBlockIndex(db)
	if err != nil {
		t.Fatalf("TestLoadBlockIndex: LoadBlockIndex unexpectedly failed: %s", err)
	}
	if loadedIndex.Len() != len(nodes) {
		t.Fatalf("TestLoadBlockIndex: loaded %d records, want %d",
			loadedIndex.Len(), len(nodes))
	}

	// The parent links must be resolved against the loaded index, not the
	// original nodes.
	tip := loadedIndex.LookupNode(nodes[4].Hash())
	if tip == nil {
		t.Fatalf("TestLoadBlockIndex: tip is missing from the loaded index")
	}
	height := tip.Height()
	for node := tip; node != nil; node = node.Parent() {
		if node.Height() != height {
			t.Fatalf("TestLoadBlockIndex: node %s has height %d, want %d",
				node, node.Height(), height)
		}
		height--
	}

	chain, err := ActivateBestChain(loadedIndex)
	if err != nil {
		t.Fatalf("TestLoadBlockIndex: ActivateBestChain unexpectedly failed: %s", err)
	}
	if chain.Height() != 4 {
		t.Errorf("TestLoadBlockIndex: chain height is %d, want 4", chain.Height())
	}
	if *chain.Tip().Hash() != *nodes[4].Hash() {
		t.Errorf("TestLoadBlockIndex: chain tip is %s, want %s",
			chain.Tip(), nodes[4])
	}
}

func TestLoadBlockIndexUnknownParent(t *testing.T) {
	db, teardown := setupTestDB(t, "TestLoadBlockIndexUnknownParent")
	defer teardown()

	// Flush only the child of a two-block chain. Its record references a
	// parent that is missing from the database.
	nodes := buildTestChain(2)
	index := NewBlockIndex(db)
	index.AddNode(nodes[1])
	err := index.FlushNode(nodes[1])
	if err != nil {
		t.Fatalf("TestLoadBlockIndexUnknownParent: FlushNode unexpectedly "+
			"failed: %s", err)
	}

	_, err = LoadBlockIndex(db)
	if err == nil {
		t.Fatalf("TestLoadBlockIndexUnknownParent: expected LoadBlockIndex to " +
			"fail on a record with an unknown parent")
	}
}

func TestActivateBestChainEmptyIndex(t *testing.T) {
	db, teardown := setupTestDB(t, "TestActivateBestChainEmptyIndex")
	defer teardown()

	_, err := ActivateBestChain(NewBlockIndex(db))
	if err == nil {
		t.Fatalf("TestActivateBestChainEmptyIndex: expected ActivateBestChain " +
			"to fail on an empty index")
	}
}
