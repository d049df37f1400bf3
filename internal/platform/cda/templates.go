package cda

// Release selects which template identity row applies to a build. The set
// is closed; a build is configured with exactly one release and never
// changes it mid-assembly.
type Release string

const (
	ReleaseR21 Release = "R2.1"
	ReleaseR20 Release = "R2.0"
)

// DefaultRelease is used when configuration does not name one.
const DefaultRelease = ReleaseR21

// TemplateIdentity is one (root, extension, description) triple naming a
// specification shape a node conforms to. A builder type may require
// several identities at once; their order is fixed for reproducibility.
type TemplateIdentity struct {
	Root        string
	Extension   string
	Description string
}

// TemplateTable maps (builder type, release) to the ordered identities
// that must be stamped onto the produced element. A builder type with no
// entry for any release is an authoring bug and fails the build; a type
// registered for some release but not the requested one falls back to the
// newest registered release, because template sets only shrink backwards.
type TemplateTable struct {
	entries map[string]map[Release][]TemplateIdentity
}

// NewTemplateTable returns an empty table.
func NewTemplateTable() *TemplateTable {
	return &TemplateTable{entries: make(map[string]map[Release][]TemplateIdentity)}
}

// Register sets the identities for a builder type at a release, replacing
// any previous registration.
func (t *TemplateTable) Register(builderType string, release Release, ids ...TemplateIdentity) {
	byRelease, ok := t.entries[builderType]
	if !ok {
		byRelease = make(map[Release][]TemplateIdentity)
		t.entries[builderType] = byRelease
	}
	byRelease[release] = ids
}

// IdentitiesFor returns the ordered identities for a builder type at a
// release.
func (t *TemplateTable) IdentitiesFor(builderType string, release Release) ([]TemplateIdentity, error) {
	byRelease, ok := t.entries[builderType]
	if !ok || len(byRelease) == 0 {
		return nil, configErrorf("no template identity registered for builder type %q", builderType)
	}
	if ids, ok := byRelease[release]; ok {
		return ids, nil
	}
	for _, fallback := range []Release{ReleaseR21, ReleaseR20} {
		if ids, ok := byRelease[fallback]; ok {
			return ids, nil
		}
	}
	// Registered only under a release outside the known set.
	for _, ids := range byRelease {
		return ids, nil
	}
	return nil, configErrorf("no template identity registered for builder type %q", builderType)
}

// Stamp appends one templateId child per identity, in table order. Stamping
// happens before any other content is attached, so identity nodes are
// always the first children of the owning element.
func (t *TemplateTable) Stamp(node *Node, builderType string, release Release) error {
	ids, err := t.IdentitiesFor(builderType, release)
	if err != nil {
		return err
	}
	for _, id := range ids {
		tpl := NewNode("templateId").SetAttr("root", id.Root)
		if id.Extension != "" {
			tpl.SetAttr("extension", id.Extension)
		}
		node.Append(tpl)
	}
	return nil
}
