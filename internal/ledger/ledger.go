// Package ledger owns receipt persistence: append, delete, owner-scoped
// listing, and a live subscription that re-delivers the full snapshot on
// every change.
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/vickotoAguilera/BoletasScaner/internal/entity"
)

// Snapshot is one immutable, owner-scoped view of the ledger, newest
// purchase first. Consumers must not mutate it; aggregation treats each
// snapshot as a value.
type Snapshot []*entity.Receipt

// Store is the persistence boundary. Append validates before writing and
// assigns id and timestamps; there is no partial update, only append and
// delete.
type Store interface {
	Append(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	List(ctx context.Context, ownerID string) (Snapshot, error)
}

// Ledger couples a Store with a change hub so callers can watch an owner's
// receipts. Writes go through here so every change produces a fresh snapshot
// for subscribers.
type Ledger struct {
	store Store
	hub   *Hub
}

func New(store Store) *Ledger {
	return &Ledger{store: store, hub: NewHub()}
}

func (l *Ledger) Append(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	saved, err := l.store.Append(ctx, rec)
	if err != nil {
		return nil, err
	}
	l.notify(ctx, saved.OwnerID)
	return saved, nil
}

func (l *Ledger) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := l.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	l.notify(ctx, ownerID)
	return nil
}

func (l *Ledger) List(ctx context.Context, ownerID string) (Snapshot, error) {
	return l.store.List(ctx, ownerID)
}

// Subscribe delivers the current snapshot immediately, then a fresh one after
// every append or delete for the owner. The returned cancel func must be
// called to release the subscription.
func (l *Ledger) Subscribe(ctx context.Context, ownerID string) (<-chan Snapshot, func(), error) {
	// Register before reading so a write landing in between is published
	// rather than lost; the hub's replace semantics absorb the duplicate.
	ch, cancel := l.hub.Subscribe(ownerID)
	snap, err := l.store.List(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	select {
	case ch <- snap:
	default:
		// A write already published a fresher snapshot; keep that one.
	}
	return ch, cancel, nil
}

func (l *Ledger) notify(ctx context.Context, ownerID string) {
	if !l.hub.HasSubscribers(ownerID) {
		return
	}
	snap, err := l.store.List(ctx, ownerID)
	if err != nil {
		return
	}
	l.hub.Publish(ownerID, snap)
}
