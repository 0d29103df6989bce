package person_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

func str(v string) *string { return &v }
func i64(v int64) *int64   { return &v }

func hydrated(first, last string, weight int) *person.Person {
	return person.Hydrate("165736", "jdoe", first, last, "", nil, nil, "", weight, time.Now(), time.Now())
}

func TestChangeName_NewPerson(t *testing.T) {
	p := person.New(person.MatchByPersonID, "165736")
	p.ChangeName(str("Smith"), str("Jane"), 1, nil)

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Equal(t, "Smith, Jane", p.LegalName(), "legal name is derived on first write too")
	assert.Equal(t, 1, p.NameWeight())
	assert.Empty(t, p.PendingAkas())
}

func TestChangeName_NewPersonExplicitLegalName(t *testing.T) {
	p := person.New(person.MatchByPersonID, "165736")
	p.ChangeName(str("Smith"), str("Jane"), 1, str("Smith, Jane Q"))
	assert.Equal(t, "Smith, Jane Q", p.LegalName())
}

func TestChangeName_HigherWeightOverwritesAndRecordsAka(t *testing.T) {
	p := hydrated("Jane", "Smith", 1)
	p.ChangeName(str("Jones"), str("Jane"), 2, nil)

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Jones", p.Lastname())
	assert.Equal(t, 2, p.NameWeight())
	require.Len(t, p.PendingAkas(), 1)
	aka := p.PendingAkas()[0]
	assert.Equal(t, "Jane", aka.Firstname)
	assert.Equal(t, "Smith", aka.Lastname)
	assert.Equal(t, "165736", aka.PersonID)
}

func TestChangeName_LowerWeightIsIgnored(t *testing.T) {
	p := hydrated("Jane", "Smith", 2)
	p.ChangeName(str("Jones"), str("Jane"), 1, nil)

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Equal(t, 2, p.NameWeight())
	assert.Empty(t, p.PendingAkas())
}

func TestChangeName_EqualWeightOverwrites(t *testing.T) {
	p := hydrated("Jane", "Smith", 2)
	p.ChangeName(str("Jones"), str("Jane"), 2, nil)

	assert.Equal(t, "Jones", p.Lastname())
	assert.Equal(t, 2, p.NameWeight())
	require.Len(t, p.PendingAkas(), 1)
}

func TestChangeName_WeightMonotonic(t *testing.T) {
	p := hydrated("Jane", "Smith", 0)
	weights := []int{3, 1, 5, 2, 5, 0}
	prev := p.NameWeight()
	for _, w := range weights {
		p.ChangeName(str("Smith"), str("Jane"), w, nil)
		assert.GreaterOrEqual(t, p.NameWeight(), prev)
		prev = p.NameWeight()
	}
	assert.Equal(t, 5, p.NameWeight())
}

func TestChangeName_NilMeansDoNotTouch(t *testing.T) {
	p := hydrated("Jane", "Smith", 1)
	p.ChangeName(nil, nil, 2, nil)

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Equal(t, 2, p.NameWeight(), "weight still rises on a higher-priority touch")
	assert.Empty(t, p.PendingAkas())
}

func TestChangeName_BackfillIsNotAChange(t *testing.T) {
	p := person.Hydrate("165736", "jdoe", "", "", "", nil, nil, "", 0, time.Now(), time.Now())
	p.ChangeName(str("Smith"), str("Jane"), 1, nil)

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Empty(t, p.PendingAkas(), "filling empty fields is not a name change")
}

func TestChangeName_DerivesLegalName(t *testing.T) {
	p := hydrated("Jane", "Smith", 0)
	p.ChangeName(str("Jones"), str("Jane"), 1, nil)
	assert.Equal(t, "Jones, Jane", p.LegalName())

	q := person.Hydrate("2", "", "", "Solo", "", nil, nil, "", 0, time.Now(), time.Now())
	q.ChangeName(str("Madonna"), nil, 1, nil)
	assert.Equal(t, "Madonna", q.LegalName())
}

func TestChangeName_ExplicitLegalNameWins(t *testing.T) {
	p := hydrated("Jane", "Smith", 0)
	p.ChangeName(str("Jones"), str("Jane"), 1, str("Jones, Jane Q"))
	assert.Equal(t, "Jones, Jane Q", p.LegalName())
}

func TestChangeName_AkaDedup(t *testing.T) {
	p := hydrated("Jane", "Smith", 1)
	p.ChangeName(str("Jones"), str("Jane"), 2, nil)
	// Same transition resupplied at equal-or-increasing weight.
	p.ChangeName(str("Jones"), str("Jane"), 2, nil)
	p.ChangeName(str("Jones"), str("Jane"), 3, nil)

	require.Len(t, p.PendingAkas(), 1)
	assert.Equal(t, "Smith", p.PendingAkas()[0].Lastname)
}

func TestMerge_AbsentFieldsDoNotErase(t *testing.T) {
	p := person.Hydrate("165736", "jdoe", "Jane", "Smith", "Smith, Jane",
		i64(1234567), i64(889900), "jdoe@uw.edu", 1, time.Now(), time.Now())

	p.Merge(person.ParsedPerson{NameWeight: 1})

	assert.Equal(t, "jdoe", p.NetID())
	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	require.NotNil(t, p.StudentNo())
	assert.Equal(t, int64(1234567), *p.StudentNo())
	require.NotNil(t, p.EmployeeID())
	assert.Equal(t, int64(889900), *p.EmployeeID())
	assert.Equal(t, "jdoe@uw.edu", p.Email())
	assert.Empty(t, p.PendingAkas())
}

func TestMerge_PresentFieldsApply(t *testing.T) {
	p := person.Hydrate("165736", "", "", "", "", nil, nil, "", 0, time.Now(), time.Now())

	p.Merge(person.ParsedPerson{
		NetID:      str("jdoe"),
		Firstname:  str("Jane"),
		Lastname:   str("Smith"),
		StudentNo:  i64(1234567),
		EmployeeID: i64(889900),
		Email:      str("jdoe@uw.edu"),
		NameWeight: 1,
	})

	assert.Equal(t, "jdoe", p.NetID())
	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Equal(t, int64(1234567), *p.StudentNo())
	assert.Equal(t, int64(889900), *p.EmployeeID())
	assert.Equal(t, "jdoe@uw.edu", p.Email())
	assert.Empty(t, p.PendingAkas(), "backfill of empty names records no Aka")
}

func TestMerge_NameFieldsGoThroughChangeName(t *testing.T) {
	p := person.Hydrate("165736", "jdoe", "Jane", "Smith", "", nil, nil, "", 5, time.Now(), time.Now())

	// Lower-priority source cannot clobber the name but may add the rest.
	p.Merge(person.ParsedPerson{
		Firstname:  str("Janet"),
		Lastname:   str("Jones"),
		Email:      str("jdoe@uw.edu"),
		NameWeight: 1,
	})

	assert.Equal(t, "Jane", p.Firstname())
	assert.Equal(t, "Smith", p.Lastname())
	assert.Equal(t, 5, p.NameWeight())
	assert.Equal(t, "jdoe@uw.edu", p.Email())
	assert.Empty(t, p.PendingAkas())
}

func TestDisplayName(t *testing.T) {
	p := hydrated("Jane", "Smith", 0)
	assert.Equal(t, "Jane Smith", p.DisplayName())

	q := person.Hydrate("2", "", "", "Cher", "", nil, nil, "", 0, time.Now(), time.Now())
	assert.Equal(t, "Cher", q.DisplayName())
}

func TestMarkPersisted_ClearsPendingAkas(t *testing.T) {
	p := hydrated("Jane", "Smith", 1)
	p.ChangeName(str("Jones"), str("Jane"), 2, nil)
	require.Len(t, p.PendingAkas(), 1)

	p.MarkPersisted()
	assert.True(t, p.IsPersisted())
	assert.Empty(t, p.PendingAkas())
}
