package simulation

// Route is a named, immutable bundle of a SectionsMapper plus the section
// list it was built from. A scenario constructs exactly one Route and
// shares it, read-only, across every candidate simulation (spec.md §3, §9).
type Route struct {
	Name            string
	Description     string
	Sections        []*Section
	SectionsMapper  *SectionsMapper
}

// NewRoute builds a Route over the given sections and checks connectivity
// integrity eagerly, matching the original's "Finished integrity check for
// the route" step at construction time.
func NewRoute(name, description string, sections []*Section, cache *Cache) (*Route, error) {
	mapper := NewSectionsMapper(sections, cache)
	if err := mapper.CheckIntegrity(); err != nil {
		return nil, err
	}
	return &Route{
		Name:           name,
		Description:    description,
		Sections:       sections,
		SectionsMapper: mapper,
	}, nil
}
