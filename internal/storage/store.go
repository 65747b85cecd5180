// Package storage is the object-store layer recordings and audit snapshots
// live in. Keys are flat "/"-separated strings; there are no directories.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("object not found")

// DefaultPageSize is the listing page size used when a store is not told
// otherwise. It matches the S3 maximum.
const DefaultPageSize = 1000

// ListPage is one page of a key listing.
type ListPage struct {
	Keys []string
	// NextToken continues the listing. Empty on the last page.
	NextToken string
}

// Store is the contract recordings are read through.
type Store interface {
	// GetObject returns the full contents of key.
	GetObject(ctx context.Context, key string) ([]byte, error)
	// ListObjects returns keys starting with prefix. Pass the previous page's
	// NextToken to continue; "" starts from the beginning.
	ListObjects(ctx context.Context, prefix, token string) (ListPage, error)
	// PutObject writes data under key, replacing any existing object.
	PutObject(ctx context.Context, key string, data []byte) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// ListAll walks every page under prefix and calls fn with each page's keys.
func ListAll(ctx context.Context, s Store, prefix string, fn func(keys []string)) error {
	token := ""
	for {
		page, err := s.ListObjects(ctx, prefix, token)
		if err != nil {
			return err
		}
		fn(page.Keys)
		if page.NextToken == "" || page.NextToken == token {
			return nil
		}
		token = page.NextToken
	}
}
