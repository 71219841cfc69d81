// Package extension exposes typed pipeline hooks. Callbacks are registered
// per phase and invoked in registration order with a concrete context struct;
// a callback error aborts the run.
package extension

import (
	"context"

	"git.home.luguber.info/inful/doccatalog/internal/content"
)

// SourcesResolvedContext is passed after every content source has been
// resolved and fetched, before any reading begins.
type SourcesResolvedContext struct {
	// URLs of the resolved sources in declaration order.
	SourceURLs []string
}

// BucketBuiltContext is passed once per aggregated ref.
type BucketBuiltContext struct {
	Bucket *content.Bucket
}

// CatalogBuiltContext is passed after classification with the merged buckets
// in their final order.
type CatalogBuiltContext struct {
	Buckets []*content.Bucket
}

type (
	SourcesResolvedFunc func(context.Context, *SourcesResolvedContext) error
	BucketBuiltFunc     func(context.Context, *BucketBuiltContext) error
	CatalogBuiltFunc    func(context.Context, *CatalogBuiltContext) error
)

// Hooks is an ordered set of callbacks per pipeline phase. The zero value is
// usable and invokes nothing.
type Hooks struct {
	sourcesResolved []SourcesResolvedFunc
	bucketBuilt     []BucketBuiltFunc
	catalogBuilt    []CatalogBuiltFunc
}

func (h *Hooks) OnSourcesResolved(fn SourcesResolvedFunc) { h.sourcesResolved = append(h.sourcesResolved, fn) }
func (h *Hooks) OnBucketBuilt(fn BucketBuiltFunc)         { h.bucketBuilt = append(h.bucketBuilt, fn) }
func (h *Hooks) OnCatalogBuilt(fn CatalogBuiltFunc)       { h.catalogBuilt = append(h.catalogBuilt, fn) }

func (h *Hooks) FireSourcesResolved(ctx context.Context, hc *SourcesResolvedContext) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.sourcesResolved {
		if err := fn(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) FireBucketBuilt(ctx context.Context, hc *BucketBuiltContext) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.bucketBuilt {
		if err := fn(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) FireCatalogBuilt(ctx context.Context, hc *CatalogBuiltContext) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.catalogBuilt {
		if err := fn(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}
