package persistence

import (
	"context"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

// HookFunc runs before the physical write; returning an error (including
// person.ErrSaveVetoed) aborts the save with no write and no post stages.
type HookFunc func(ctx context.Context, p *person.Person) error

// NotifyFunc runs after a successful write. Failures here cannot unwind
// the write, so notify funcs do not return errors.
type NotifyFunc func(ctx context.Context, result SaveResult)

// SaveResult is handed to post-stage hooks after a committed save.
type SaveResult struct {
	Person  *person.Person
	Created bool
	// Akas recorded during this save, one per detected prior name.
	Akas []person.Aka
}

// Hooks is the ordered save pipeline surrounding the physical write:
// PreSave, then PreInsert or PreUpdate, the write itself, then PostInsert
// or PostUpdate, then PostSave. Plain function slices, composed by the
// repository; there is no override mechanism.
type Hooks struct {
	PreSave   []HookFunc
	PreInsert []HookFunc
	PreUpdate []HookFunc

	PostInsert []NotifyFunc
	PostUpdate []NotifyFunc
	PostSave   []NotifyFunc
}

// runSave orchestrates one save through the hook pipeline. The write
// callback performs the transactional insert-or-update and returns the
// recorded akas.
func runSave(
	ctx context.Context,
	p *person.Person,
	hooks Hooks,
	write func(ctx context.Context) ([]person.Aka, error),
) error {
	created := !p.IsPersisted()

	for _, hook := range hooks.PreSave {
		if err := hook(ctx, p); err != nil {
			return err
		}
	}
	pre := hooks.PreUpdate
	if created {
		pre = hooks.PreInsert
	}
	for _, hook := range pre {
		if err := hook(ctx, p); err != nil {
			return err
		}
	}

	akas, err := write(ctx)
	if err != nil {
		return err
	}

	result := SaveResult{Person: p, Created: created, Akas: akas}
	post := hooks.PostUpdate
	if created {
		post = hooks.PostInsert
	}
	for _, notify := range post {
		notify(ctx, result)
	}
	for _, notify := range hooks.PostSave {
		notify(ctx, result)
	}
	return nil
}
