package dbaccess

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// DatabaseContext represents a context in which all database queries run.
type DatabaseContext struct {
	ldb *leveldb.DB
}

// syncWrites makes every write wait for the data to hit the disk before
// returning. Index updates rely on this for their durability guarantees.
var syncWrites = &opt.WriteOptions{Sync: true}

// New creates a new DatabaseContext with the database in the specified
// `path`. The database is created if it doesn't exist yet.
func New(path string) (*DatabaseContext, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		if ldbErrors.IsCorrupted(err) {
			return nil, errors.Wrapf(err, "database is corrupted at %s", path)
		}
		return nil, errors.WithStack(err)
	}

	return &DatabaseContext{ldb: ldb}, nil
}

// Close closes the DatabaseContext's connection, if it's open.
func (ctx *DatabaseContext) Close() error {
	return errors.WithStack(ctx.ldb.Close())
}

func (ctx *DatabaseContext) put(key, value []byte) error {
	return errors.WithStack(ctx.ldb.Put(key, value, syncWrites))
}

func (ctx *DatabaseContext) get(key []byte) ([]byte, error) {
	value, err := ctx.ldb.Get(key, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (ctx *DatabaseContext) has(key []byte) (bool, error) {
	exists, err := ctx.ldb.Has(key, nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

func (ctx *DatabaseContext) delete(key []byte) error {
	return errors.WithStack(ctx.ldb.Delete(key, syncWrites))
}

// IsNotFoundError checks whether err is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(errors.Cause(err), leveldb.ErrNotFound)
}
