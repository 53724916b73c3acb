// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package results

import (
	"context"
	"errors"

	"github.com/gogpu/retrace/engine"
)

// ErrClosed is returned by Save on a closed store.
var ErrClosed = errors.New("results: store closed")

// Store persists session results.
type Store interface {
	// Save records res.
	Save(ctx context.Context, res engine.Result) error

	// Close releases the store. Close is idempotent.
	Close() error
}

// Multi returns a Store that saves to every store in order. Save reports
// the joined errors of all stores; one failing store does not stop the
// others.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) Save(ctx context.Context, res engine.Result) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiStore) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
