package cda

import "github.com/google/uuid"

// IDGenerator supplies globally-unique identifiers for nodes that need a
// persistent cross-document identity. The engine only guarantees
// build-local uniqueness for cross-reference identifiers; everything
// stronger is this collaborator's concern.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator is the default IDGenerator.
type UUIDGenerator struct{}

// Generate returns a fresh random UUID string.
func (UUIDGenerator) Generate() string {
	return uuid.New().String()
}

// BuildContext carries the per-build collaborators and mutable state: the
// specification release, the template table, the vocabulary, the external
// ID generator, and the set of cross-reference identifiers minted so far.
// A context belongs to exactly one document build and must not be shared
// between concurrent builds.
type BuildContext struct {
	Release   Release
	Templates *TemplateTable
	Vocab     *Vocabulary
	IDs       IDGenerator

	refs map[string]struct{}
}

// NewBuildContext creates a context for one document build.
func NewBuildContext(release Release, templates *TemplateTable) *BuildContext {
	if release == "" {
		release = DefaultRelease
	}
	return &BuildContext{
		Release:   release,
		Templates: templates,
		Vocab:     NewVocabulary(),
		IDs:       UUIDGenerator{},
		refs:      make(map[string]struct{}),
	}
}

// ClaimRef records a cross-reference identifier as used within this build.
// Minting the same identifier twice means two narrative rows would collide,
// which breaks the narrative/structured linkage.
func (c *BuildContext) ClaimRef(ref string) error {
	if _, dup := c.refs[ref]; dup {
		return structuralErrorf("duplicate cross-reference identifier %q", ref)
	}
	c.refs[ref] = struct{}{}
	return nil
}

// Populator attaches field content to a freshly stamped element. Concrete
// builders implement only this step: reading declared fields from their
// data record, applying the vocabulary resolver and the missing-data
// policy, and attaching children.
type Populator interface {
	// BuilderType names the template table row for this builder.
	BuilderType() string
	// Populate attaches content after template identities are stamped.
	Populate(ctx *BuildContext, node *Node) error
}

// Build runs the element pipeline: create the node, stamp its template
// identities, populate it, and return the finalized tree. Builds do not
// cache; rebuilding from the same data and release yields a structurally
// identical tree except for freshly generated unique identifiers.
func Build(ctx *BuildContext, tag string, p Populator) (*Node, error) {
	node := NewNode(tag)
	if err := ctx.Templates.Stamp(node, p.BuilderType(), ctx.Release); err != nil {
		return nil, err
	}
	if err := p.Populate(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// CodeNode builds a coded element, resolving the symbolic code system
// through the vocabulary. An empty code yields a nullFlavor marker per the
// coded-field policy.
func (c *BuildContext) CodeNode(tag, code, system, display string) *Node {
	d, out := Decide(code, true, CategoryCoded)
	n := NewNode(tag)
	if d == Marker {
		return n.SetAttr("nullFlavor", out)
	}
	n.SetAttr("code", out)
	if system != "" {
		cs := c.Vocab.Resolve(system)
		n.SetAttr("codeSystem", cs.OID)
		if cs.Name != "" {
			n.SetAttr("codeSystemName", cs.Name)
		}
	}
	if display != "" {
		n.SetAttr("displayName", display)
	}
	return n
}

// InstanceID builds an id element. An empty root falls back to a freshly
// generated identifier; identifier fields are required by the CDA schema.
func (c *BuildContext) InstanceID(root, extension string) *Node {
	if root == "" {
		root = c.IDs.Generate()
	}
	n := NewNode("id").SetAttr("root", root)
	if extension != "" {
		n.SetAttr("extension", extension)
	}
	return n
}

// ReferenceText builds the text/reference linkage from a structured entry
// back to its narrative row.
func ReferenceText(ref string) *Node {
	return NewNode("text").Append(
		NewNode("reference").SetAttr("value", "#"+ref),
	)
}
