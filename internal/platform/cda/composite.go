package cda

// EmptyPolicy is the uniform policy for a composite given zero child
// records and no absent-data flag.
type EmptyPolicy int

const (
	// EmptyPlaceholder renders the placeholder narrative with zero
	// structured entries.
	EmptyPlaceholder EmptyPolicy = iota
	// EmptyError fails the build: the section requires at least one entry.
	EmptyError
)

// Item is one child record prepared for assembly: its narrative cells and
// the function that builds its structured entry. The builder receives the
// cross-reference identifier minted for the item's narrative row so the
// structured entry can point back at it.
type Item struct {
	Cells []string
	Build func(ctx *BuildContext, ref string) (*Node, error)
}

// Group is a run of items under one organizer (e.g. a lab panel). The
// organizer builder receives its finalized children.
type Group struct {
	Label string
	Items []Item
	Build func(ctx *BuildContext, children []*Node) (*Node, error)
}

// Composite assembles the two views of a child collection onto a section
// node: the narrative block and the structured entries. Both are produced
// from the same iteration, so the Nth narrative row's identifier always
// belongs to the Nth structured child.
type Composite struct {
	Renderer *Renderer
	// WrapTag wraps each structured child ("entry" for sections,
	// "component" inside organizers).
	WrapTag   string
	WrapAttrs []Attr
	// Empty governs zero-record collections; Placeholder is the narrative
	// text used when no entries are emitted.
	Empty       EmptyPolicy
	Placeholder string
}

// AssembleFlat attaches the narrative and one wrapped structured entry per
// item. absentReason, when non-empty, is the section-level missing-data
// flag: the section is marked with that nullFlavor, the placeholder
// narrative is rendered, and all entries are suppressed.
func (c *Composite) AssembleFlat(ctx *BuildContext, section *Node, prefix string, items []Item, absentReason string) error {
	if len(items) == 0 {
		return c.assembleEmpty(section, absentReason)
	}

	cells := make([][]string, len(items))
	for i, it := range items {
		cells[i] = it.Cells
	}
	text, rows, err := c.Renderer.RenderFlat(ctx, prefix, cells)
	if err != nil {
		return err
	}
	section.Append(text)

	for i, it := range items {
		child, err := it.Build(ctx, rows[i].Ref)
		if err != nil {
			return err
		}
		section.Append(c.wrap(child))
	}
	return nil
}

// AssembleGroups is AssembleFlat for organizer-grouped items: one wrapped
// organizer per group, each containing its items as components, with the
// group label rendered only on the group's first narrative row.
func (c *Composite) AssembleGroups(ctx *BuildContext, section *Node, prefix string, groups []Group, absentReason string) error {
	if len(groups) == 0 {
		return c.assembleEmpty(section, absentReason)
	}

	rowGroups := make([]RowGroup, len(groups))
	for g, grp := range groups {
		rows := make([][]string, len(grp.Items))
		for i, it := range grp.Items {
			rows[i] = it.Cells
		}
		rowGroups[g] = RowGroup{Label: grp.Label, Rows: rows}
	}
	text, refs, err := c.Renderer.RenderGroups(ctx, prefix, rowGroups)
	if err != nil {
		return err
	}
	section.Append(text)

	for g, grp := range groups {
		children := make([]*Node, len(grp.Items))
		for i, it := range grp.Items {
			child, err := it.Build(ctx, refs[g][i].Ref)
			if err != nil {
				return err
			}
			children[i] = child
		}
		organizer, err := grp.Build(ctx, children)
		if err != nil {
			return err
		}
		section.Append(c.wrap(organizer))
	}
	return nil
}

func (c *Composite) assembleEmpty(section *Node, absentReason string) error {
	if absentReason != "" {
		section.SetAttr("nullFlavor", absentReason)
		section.Append(c.Renderer.Placeholder(c.Placeholder))
		return nil
	}
	if c.Empty == EmptyError {
		return structuralErrorf("collection requires at least one entry and no missing-data flag was set")
	}
	section.Append(c.Renderer.Placeholder(c.Placeholder))
	return nil
}

func (c *Composite) wrap(child *Node) *Node {
	tag := c.WrapTag
	if tag == "" {
		tag = "entry"
	}
	wrap := NewNode(tag)
	for _, a := range c.WrapAttrs {
		wrap.SetAttr(a.Name, a.Value)
	}
	return wrap.Append(child)
}
