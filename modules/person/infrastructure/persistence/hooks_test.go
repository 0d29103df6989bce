package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

func newUnsaved() *person.Person {
	return person.New(person.MatchByPersonID, "165736")
}

func existing() *person.Person {
	return person.Hydrate("165736", "jdoe", "Jane", "Smith", "", nil, nil, "", 1,
		time.Now(), time.Now())
}

func TestRunSave_StageOrderOnInsert(t *testing.T) {
	var order []string
	stage := func(name string) HookFunc {
		return func(context.Context, *person.Person) error {
			order = append(order, name)
			return nil
		}
	}
	notify := func(name string) NotifyFunc {
		return func(context.Context, SaveResult) {
			order = append(order, name)
		}
	}
	hooks := Hooks{
		PreSave:    []HookFunc{stage("preSave")},
		PreInsert:  []HookFunc{stage("preInsert")},
		PreUpdate:  []HookFunc{stage("preUpdate")},
		PostInsert: []NotifyFunc{notify("postInsert")},
		PostUpdate: []NotifyFunc{notify("postUpdate")},
		PostSave:   []NotifyFunc{notify("postSave")},
	}

	err := runSave(context.Background(), newUnsaved(), hooks, func(context.Context) ([]person.Aka, error) {
		order = append(order, "write")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"preSave", "preInsert", "write", "postInsert", "postSave"}, order)
}

func TestRunSave_StageOrderOnUpdate(t *testing.T) {
	var order []string
	hooks := Hooks{
		PreInsert: []HookFunc{func(context.Context, *person.Person) error {
			order = append(order, "preInsert")
			return nil
		}},
		PreUpdate: []HookFunc{func(context.Context, *person.Person) error {
			order = append(order, "preUpdate")
			return nil
		}},
		PostUpdate: []NotifyFunc{func(context.Context, SaveResult) {
			order = append(order, "postUpdate")
		}},
	}

	err := runSave(context.Background(), existing(), hooks, func(context.Context) ([]person.Aka, error) {
		order = append(order, "write")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"preUpdate", "write", "postUpdate"}, order)
}

func TestRunSave_PreHookVetoAbortsWrite(t *testing.T) {
	wrote := false
	posted := false
	hooks := Hooks{
		PreSave: []HookFunc{func(context.Context, *person.Person) error {
			return person.ErrSaveVetoed
		}},
		PostSave: []NotifyFunc{func(context.Context, SaveResult) { posted = true }},
	}

	err := runSave(context.Background(), existing(), hooks, func(context.Context) ([]person.Aka, error) {
		wrote = true
		return nil, nil
	})
	require.ErrorIs(t, err, person.ErrSaveVetoed)
	assert.False(t, wrote, "vetoed save must not reach the physical write")
	assert.False(t, posted, "vetoed save must not run post hooks")
}

func TestRunSave_WriteErrorSkipsPostHooks(t *testing.T) {
	posted := false
	hooks := Hooks{
		PostSave: []NotifyFunc{func(context.Context, SaveResult) { posted = true }},
	}

	err := runSave(context.Background(), existing(), hooks, func(context.Context) ([]person.Aka, error) {
		return nil, assert.AnError
	})
	require.Error(t, err)
	assert.False(t, posted)
}

func TestRunSave_ResultCarriesCreatedAndAkas(t *testing.T) {
	var got SaveResult
	hooks := Hooks{
		PostSave: []NotifyFunc{func(_ context.Context, r SaveResult) { got = r }},
	}
	akas := []person.Aka{{PersonID: "165736", Firstname: "Jane", Lastname: "Smith"}}

	p := newUnsaved()
	err := runSave(context.Background(), p, hooks, func(context.Context) ([]person.Aka, error) {
		return akas, nil
	})
	require.NoError(t, err)
	assert.True(t, got.Created)
	assert.Equal(t, akas, got.Akas)
	assert.Same(t, p, got.Person)
}
