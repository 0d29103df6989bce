package mappers

import (
	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
	"github.com/uwcoe/persondir/modules/person/presentation/viewmodels"
	"github.com/uwcoe/persondir/modules/person/services"
)

// PersonToSuggestion renders a cached person as "First Last (netid)"; the
// net-id suffix is dropped when the person has none.
func PersonToSuggestion(p *person.Person) *viewmodels.Suggestion {
	name := p.DisplayName()
	if p.NetID() != "" {
		name += " (" + p.NetID() + ")"
	}
	return &viewmodels.Suggestion{
		ID:   p.PersonID(),
		Name: name,
	}
}

func WarehouseToSuggestion(hit services.WarehousePerson) *viewmodels.Suggestion {
	name := hit.DisplayName
	if hit.NetID != "" {
		name += " (" + hit.NetID + ")"
	}
	return &viewmodels.Suggestion{
		ID:   hit.PersonID,
		Name: name,
	}
}

func PersonToDetail(p *person.Person, akas []person.Aka) *viewmodels.PersonDetail {
	priorNames := make([]viewmodels.PriorName, 0, len(akas))
	for _, aka := range akas {
		priorNames = append(priorNames, viewmodels.PriorName{
			Firstname: aka.Firstname,
			Lastname:  aka.Lastname,
		})
	}
	return &viewmodels.PersonDetail{
		PersonID:   p.PersonID(),
		UWNetID:    p.NetID(),
		Firstname:  p.Firstname(),
		Lastname:   p.Lastname(),
		LegalName:  p.LegalName(),
		StudentNo:  p.StudentNo(),
		EmployeeID: p.EmployeeID(),
		Email:      p.Email(),
		PriorNames: priorNames,
	}
}
