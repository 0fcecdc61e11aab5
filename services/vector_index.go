package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type chatPurger interface {
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
	DeleteByChat(ctx context.Context, collection string, chatID string) error
}

// VectorIndex groups the collection-level operations that span both vector
// collections.
type VectorIndex struct {
	store             chatPurger
	docCollection     string
	historyCollection string
	dim               int
}

func NewVectorIndex(store chatPurger, docCollection, historyCollection string, dim int) *VectorIndex {
	return &VectorIndex{
		store:             store,
		docCollection:     docCollection,
		historyCollection: historyCollection,
		dim:               dim,
	}
}

// EnsureCollections creates both collections if they do not exist yet. Run
// once at startup, before anything writes points.
func (v *VectorIndex) EnsureCollections(ctx context.Context) error {
	if err := v.store.EnsureCollection(ctx, v.docCollection, v.dim); err != nil {
		return fmt.Errorf("%w: ensure %s: %v", ErrIndex, v.docCollection, err)
	}
	if err := v.store.EnsureCollection(ctx, v.historyCollection, v.dim); err != nil {
		return fmt.Errorf("%w: ensure %s: %v", ErrIndex, v.historyCollection, err)
	}
	return nil
}

// PurgeChat drops every point of a chat from both collections.
func (v *VectorIndex) PurgeChat(ctx context.Context, chatID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := v.store.DeleteByChat(gctx, v.docCollection, chatID); err != nil {
			return fmt.Errorf("%w: purge %s: %v", ErrIndex, v.docCollection, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := v.store.DeleteByChat(gctx, v.historyCollection, chatID); err != nil {
			return fmt.Errorf("%w: purge %s: %v", ErrIndex, v.historyCollection, err)
		}
		return nil
	})
	return g.Wait()
}
