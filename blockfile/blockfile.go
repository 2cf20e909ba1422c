package blockfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/pkg/errors"
)

const (
	// blockFilePrefix is the prefix of the flat files holding serialized
	// block payloads.
	blockFilePrefix = "blk"

	// undoFilePrefix is the prefix of the flat files holding the undo data
	// needed to disconnect blocks during a reorganization.
	undoFilePrefix = "rev"

	// fileExtension is the extension shared by both file kinds.
	fileExtension = ".dat"

	// fileNameLength is the length of a well-formed store file name:
	// a 3-letter prefix, a 5-digit zero-padded file number and ".dat",
	// e.g. blk00007.dat.
	fileNameLength = 12

	// recordHeaderLength is the length of the framing that precedes every
	// record in a store file: 4 bytes of network magic followed by 4 bytes
	// of payload length.
	recordHeaderLength = 8
)

// byteOrder is the byte order used for the record framing.
var byteOrder = binary.LittleEndian

// Store provides read, append, enumerate and delete access to the flat files
// that hold raw serialized blocks and their undo data. Each record within a
// file is framed with the network magic and the payload length, in the same
// way the files are written by the original Satoshi storage layout, so the
// files remain usable by external block-file tooling.
type Store struct {
	path string
	net  wire.BitcoinNet
}

// NewStore returns a store rooted at the given blocks directory, creating the
// directory if it doesn't exist yet.
func NewStore(path string, net wire.BitcoinNet) (*Store, error) {
	err := os.MkdirAll(path, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create blocks directory %s", path)
	}
	return &Store{path: path, net: net}, nil
}

// Path returns the blocks directory this store operates on.
func (s *Store) Path() string {
	return s.path
}

// BlockFileName returns the name of the blk file with the given file number.
func BlockFileName(fileNumber uint32) string {
	return fmt.Sprintf("%s%05d%s", blockFilePrefix, fileNumber, fileExtension)
}

// UndoFileName returns the name of the rev file with the given file number.
func UndoFileName(fileNumber uint32) string {
	return fmt.Sprintf("%s%05d%s", undoFilePrefix, fileNumber, fileExtension)
}

// ParseFileName parses a directory entry name into the store file number it
// refers to. ok is false for any name that does not exactly match the
// fixed-width blk/rev naming convention, including names of a different
// length and names whose numeric part is unparseable. Callers must leave such
// entries alone.
func ParseFileName(fileName string) (fileNumber uint32, ok bool) {
	if len(fileName) != fileNameLength {
		return 0, false
	}
	prefix := fileName[:3]
	if prefix != blockFilePrefix && prefix != undoFilePrefix {
		return 0, false
	}
	if fileName[fileNameLength-len(fileExtension):] != fileExtension {
		return 0, false
	}
	for _, digit := range fileName[3 : fileNameLength-len(fileExtension)] {
		if digit < '0' || digit > '9' {
			return 0, false
		}
		fileNumber = fileNumber*10 + uint32(digit-'0')
	}
	return fileNumber, true
}

// ReadBlock reads the block stored in the blk file with the given file number
// at the given byte offset, and returns it in deserialized form. It ensures
// the record framing carries the expected network magic before deserializing.
func (s *Store) ReadBlock(fileNumber uint32, dataPos uint32) (*btcutil.Block, error) {
	serializedBlock, err := s.readRecord(BlockFileName(fileNumber), dataPos)
	if err != nil {
		return nil, err
	}

	block, err := btcutil.NewBlockFromBytes(serializedBlock)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize block in file %s offset %d",
			BlockFileName(fileNumber), dataPos)
	}
	return block, nil
}

// ReadUndoData reads the undo record stored in the rev file with the given
// file number at the given byte offset.
func (s *Store) ReadUndoData(fileNumber uint32, undoPos uint32) ([]byte, error) {
	return s.readRecord(UndoFileName(fileNumber), undoPos)
}

func (s *Store) readRecord(fileName string, position uint32) ([]byte, error) {
	file, err := os.Open(filepath.Join(s.path, fileName))
	if err != nil {
		return nil, errors.Wrapf(err, "could not open store file %s", fileName)
	}
	defer file.Close()

	var header [recordHeaderLength]byte
	_, err = file.ReadAt(header[:], int64(position))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record header in file %s "+
			"offset %d", fileName, position)
	}

	net := wire.BitcoinNet(byteOrder.Uint32(header[:4]))
	if net != s.net {
		return nil, errors.Errorf("record in file %s offset %d has wrong "+
			"network magic - got %08x, want %08x", fileName, position, uint32(net),
			uint32(s.net))
	}
	dataLength := byteOrder.Uint32(header[4:])
	if dataLength > wire.MaxBlockPayload {
		return nil, errors.Errorf("record in file %s offset %d claims "+
			"impossible length %d", fileName, position, dataLength)
	}

	data := make([]byte, dataLength)
	_, err = file.ReadAt(data, int64(position)+recordHeaderLength)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %d record bytes in file "+
			"%s offset %d", dataLength, fileName, position)
	}
	return data, nil
}

// WriteBlock appends the serialized form of the given block to the blk file
// with the given file number, and returns the byte offset the record was
// written at.
func (s *Store) WriteBlock(fileNumber uint32, block *btcutil.Block) (dataPos uint32, err error) {
	serializedBlock, err := block.Bytes()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return s.appendRecord(BlockFileName(fileNumber), serializedBlock)
}

// WriteUndoData appends an undo record to the rev file with the given file
// number, and returns the byte offset the record was written at.
func (s *Store) WriteUndoData(fileNumber uint32, undoData []byte) (undoPos uint32, err error) {
	return s.appendRecord(UndoFileName(fileNumber), undoData)
}

func (s *Store) appendRecord(fileName string, data []byte) (position uint32, err error) {
	file, err := os.OpenFile(filepath.Join(s.path, fileName),
		os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return 0, errors.Wrapf(err, "could not open store file %s", fileName)
	}
	defer file.Close()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	var header [recordHeaderLength]byte
	byteOrder.PutUint32(header[:4], uint32(s.net))
	byteOrder.PutUint32(header[4:], uint32(len(data)))
	_, err = file.Write(header[:])
	if err != nil {
		return 0, errors.Wrapf(err, "failed to write record header to %s", fileName)
	}
	_, err = file.Write(data)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to write %d record bytes to %s",
			len(data), fileName)
	}

	err = file.Sync()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return uint32(offset), nil
}

// Files enumerates the directory entries of the blocks directory. The listing
// includes entries that do not belong to the store; callers are expected to
// filter with ParseFileName.
func (s *Store) Files() ([]os.FileInfo, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open blocks directory %s", s.path)
	}
	defer file.Close()

	entries, err := file.Readdir(0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not enumerate blocks directory %s", s.path)
	}
	return entries, nil
}

// RemoveFile deletes the named file from the blocks directory.
func (s *Store) RemoveFile(fileName string) error {
	return errors.WithStack(os.Remove(filepath.Join(s.path, fileName)))
}
