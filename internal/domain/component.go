package domain

// ReusableComponent is a section snippet owned by the external content service.
type ReusableComponent struct {
	ID         string
	Name       string
	Type       SectionType
	HTML       string
	SchemaHint string
	Tags       []string
}

// ComponentIndex groups reusable components by inferred section type.
// It is built once per synthesis request and handed to the resolver by value.
type ComponentIndex struct {
	byType map[SectionType][]ReusableComponent
}

// NewComponentIndex builds an index, dropping components of unknown type.
func NewComponentIndex(components []ReusableComponent) ComponentIndex {
	idx := ComponentIndex{byType: map[SectionType][]ReusableComponent{}}
	for _, c := range components {
		if c.Type == SectionUnknown {
			continue
		}
		idx.byType[c.Type] = append(idx.byType[c.Type], c)
	}
	return idx
}

// Candidates returns the components classified as the given type, in fetch order.
func (i ComponentIndex) Candidates(t SectionType) []ReusableComponent {
	if i.byType == nil || t == SectionUnknown {
		return nil
	}
	return i.byType[t]
}

// Size reports the number of indexed components.
func (i ComponentIndex) Size() int {
	n := 0
	for _, list := range i.byType {
		n += len(list)
	}
	return n
}
