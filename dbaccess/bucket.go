package dbaccess

import "bytes"

var bucketSeparator = []byte("/")

// Bucket is a helper type meant to combine buckets and keys into a single
// full key-value database key.
type Bucket struct {
	path [][]byte
}

// MakeBucket creates a new Bucket using the given path of buckets.
func MakeBucket(path ...[]byte) *Bucket {
	return &Bucket{path: path}
}

// Key returns the key inside of the current bucket.
func (b *Bucket) Key(key []byte) []byte {
	bucketPath := b.Path()

	fullKey := make([]byte, 0, len(bucketPath)+len(key))
	fullKey = append(fullKey, bucketPath...)
	fullKey = append(fullKey, key...)
	return fullKey
}

// Path returns the full path of the current bucket, including the trailing
// separator. It doubles as the iteration prefix for the bucket's contents.
func (b *Bucket) Path() []byte {
	bucketPath := bytes.Join(b.path, bucketSeparator)

	bucketPathWithFinalSeparator := make([]byte, 0, len(bucketPath)+len(bucketSeparator))
	bucketPathWithFinalSeparator = append(bucketPathWithFinalSeparator, bucketPath...)
	bucketPathWithFinalSeparator = append(bucketPathWithFinalSeparator, bucketSeparator...)
	return bucketPathWithFinalSeparator
}
