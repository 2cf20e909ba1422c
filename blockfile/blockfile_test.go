package blockfile

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		fileName       string
		wantFileNumber uint32
		wantOK         bool
	}{
		{"blk00000.dat", 0, true},
		{"blk00007.dat", 7, true},
		{"rev00007.dat", 7, true},
		{"blk12345.dat", 12345, true},
		{"rev99999.dat", 99999, true},
		{"blk0007.dat", 0, false},   // too short
		{"blk000007.dat", 0, false}, // too long
		{"dat00007.blk", 0, false},  // wrong prefix
		{"blk0000a.dat", 0, false},  // non-digit in the numeric part
		{"blkindex.dat", 0, false},  // right length, not a store file
		{"blk00007.bak", 0, false},  // wrong extension
		{".lock", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		gotFileNumber, gotOK := ParseFileName(test.fileName)
		if gotOK != test.wantOK || gotFileNumber != test.wantFileNumber {
			t.Errorf("TestParseFileName: ParseFileName(%q) = (%d, %t), "+
				"want (%d, %t)", test.fileName, gotFileNumber, gotOK,
				test.wantFileNumber, test.wantOK)
		}
	}
}

func TestFileNames(t *testing.T) {
	if got, want := BlockFileName(7), "blk00007.dat"; got != want {
		t.Errorf("TestFileNames: BlockFileName(7) = %q, want %q", got, want)
	}
	if got, want := UndoFileName(12), "rev00012.dat"; got != want {
		t.Errorf("TestFileNames: UndoFileName(12) = %q, want %q", got, want)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path, err := ioutil.TempDir("", "TestStoreRoundTrip")
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(path)

	store, err := NewStore(path, wire.SimNet)
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: NewStore unexpectedly failed: %s", err)
	}

	// Append two blocks to the same file so the second lands at a non-zero
	// offset.
	genesis := btcutil.NewBlock(chaincfg.SimNetParams.GenesisBlock)
	firstPos, err := store.WriteBlock(3, genesis)
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: WriteBlock unexpectedly failed: %s", err)
	}
	secondPos, err := store.WriteBlock(3, genesis)
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: WriteBlock unexpectedly failed: %s", err)
	}
	if firstPos != 0 {
		t.Errorf("TestStoreRoundTrip: first record written at offset %d, want 0", firstPos)
	}
	if secondPos <= firstPos {
		t.Errorf("TestStoreRoundTrip: second record written at offset %d, "+
			"want after %d", secondPos, firstPos)
	}

	fetchedBlock, err := store.ReadBlock(3, secondPos)
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: ReadBlock unexpectedly failed: %s", err)
	}
	if !reflect.DeepEqual(fetchedBlock.MsgBlock(), genesis.MsgBlock()) {
		t.Fatalf("TestStoreRoundTrip: read-back block is not equal to the " +
			"block that was written")
	}

	undoPos, err := store.WriteUndoData(3, []byte("undo data"))
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: WriteUndoData unexpectedly failed: %s", err)
	}
	undoData, err := store.ReadUndoData(3, undoPos)
	if err != nil {
		t.Fatalf("TestStoreRoundTrip: ReadUndoData unexpectedly failed: %s", err)
	}
	if string(undoData) != "undo data" {
		t.Errorf("TestStoreRoundTrip: read-back undo data is %q, want %q",
			undoData, "undo data")
	}
}

func TestStoreRejectsWrongMagic(t *testing.T) {
	path, err := ioutil.TempDir("", "TestStoreRejectsWrongMagic")
	if err != nil {
		t.Fatalf("TestStoreRejectsWrongMagic: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(path)

	simNetStore, err := NewStore(path, wire.SimNet)
	if err != nil {
		t.Fatalf("TestStoreRejectsWrongMagic: NewStore unexpectedly failed: %s", err)
	}
	genesis := btcutil.NewBlock(chaincfg.SimNetParams.GenesisBlock)
	dataPos, err := simNetStore.WriteBlock(0, genesis)
	if err != nil {
		t.Fatalf("TestStoreRejectsWrongMagic: WriteBlock unexpectedly failed: %s", err)
	}

	mainNetStore, err := NewStore(path, wire.MainNet)
	if err != nil {
		t.Fatalf("TestStoreRejectsWrongMagic: NewStore unexpectedly failed: %s", err)
	}
	_, err = mainNetStore.ReadBlock(0, dataPos)
	if err == nil {
		t.Fatalf("TestStoreRejectsWrongMagic: expected ReadBlock to reject a " +
			"record framed with a different network magic")
	}
}
