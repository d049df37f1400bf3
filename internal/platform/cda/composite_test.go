package cda

import (
	"errors"
	"strings"
	"testing"
)

func observationItem(name, code, magnitude, unit string) Item {
	return Item{
		Cells: []string{name, magnitude + " " + unit},
		Build: func(ctx *BuildContext, ref string) (*Node, error) {
			obs := NewNode("observation").
				SetAttr("classCode", "OBS").
				SetAttr("moodCode", "EVN")
			obs.Append(ctx.CodeNode("code", code, "LOINC", name))
			obs.Append(ReferenceText(ref))
			if v := (Value{Magnitude: magnitude, Unit: unit}).Node(ctx, true); v != nil {
				obs.Append(v)
			}
			return obs, nil
		},
	}
}

func testComposite() *Composite {
	return &Composite{
		Renderer:    &Renderer{Style: StyleTable, Headers: []string{"Test", "Value"}},
		WrapTag:     "entry",
		WrapAttrs:   []Attr{{Name: "typeCode", Value: "DRIV"}},
		Placeholder: "No results recorded",
	}
}

func TestComposite_AssembleFlat_Alignment(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")

	items := []Item{
		observationItem("Glucose", "2345-7", "95", "mg/dL"),
		observationItem("Sodium", "2951-2", "140", "mmol/L"),
		observationItem("Potassium", "2823-3", "4.1", "mmol/L"),
	}
	if err := testComposite().AssembleFlat(ctx, section, "results", items, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := section.FindAll("entry")
	if len(entries) != len(items) {
		t.Fatalf("expected %d entries, got %d", len(items), len(entries))
	}

	text := section.Find("text")
	if text == nil {
		t.Fatal("expected narrative text node")
	}
	rows := text.Find("table").Find("tbody").FindAll("tr")
	if len(rows) != len(items) {
		t.Fatalf("expected %d narrative rows, got %d", len(items), len(rows))
	}

	// Row i's identifier must be referenced by structured child i.
	for i, tr := range rows {
		content := tr.Children[0].Find("content")
		ref, _ := content.Attr("ID")
		entryXML := entries[i].XML()
		if !strings.Contains(entryXML, `value="#`+ref+`"`) {
			t.Errorf("entry %d does not reference narrative row %d (%q)", i, i, ref)
		}
	}
}

func TestComposite_AssembleFlat_NarrativePrecedesEntries(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")

	err := testComposite().AssembleFlat(ctx, section, "results",
		[]Item{observationItem("Glucose", "2345-7", "95", "mg/dL")}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if section.Children[0].Tag != "text" {
		t.Errorf("narrative block must precede entries, first child is %q", section.Children[0].Tag)
	}
	if section.Children[1].Tag != "entry" {
		t.Errorf("expected entry after narrative, got %q", section.Children[1].Tag)
	}
}

func TestComposite_AssembleFlat_EmptyPlaceholder(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")

	if err := testComposite().AssembleFlat(ctx, section, "results", nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(section.FindAll("entry")) != 0 {
		t.Error("empty collection must emit zero structured entries")
	}
	texts := section.FindAll("text")
	if len(texts) != 1 {
		t.Fatalf("expected exactly one placeholder narrative, got %d", len(texts))
	}
	if !strings.Contains(texts[0].XML(), "No results recorded") {
		t.Errorf("expected placeholder text, got %q", texts[0].XML())
	}
}

func TestComposite_AssembleFlat_EmptyErrorPolicy(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")
	c := testComposite()
	c.Empty = EmptyError

	err := c.AssembleFlat(ctx, section, "results", nil, "")
	if err == nil {
		t.Fatal("expected structural error for required collection with no entries")
	}
	var sErr *StructuralError
	if !errors.As(err, &sErr) {
		t.Errorf("expected *StructuralError, got %T", err)
	}
}

func TestComposite_AssembleFlat_AbsentReasonSuppressesEntries(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")
	c := testComposite()
	c.Empty = EmptyError

	// The missing-data flag overrides the EmptyError policy.
	if err := c.AssembleFlat(ctx, section, "results", nil, NullNoInformation); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if nf, _ := section.Attr("nullFlavor"); nf != NullNoInformation {
		t.Errorf("expected section nullFlavor NI, got %q", nf)
	}
	if len(section.FindAll("entry")) != 0 {
		t.Error("absent-data flag must suppress all entries")
	}
}

func TestComposite_AssembleGroups_OrganizerAlignment(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")
	c := testComposite()
	c.Renderer.Headers = []string{"Panel", "Test", "Value"}

	group := Group{
		Label: "Basic Metabolic Panel",
		Items: []Item{
			observationItem("Glucose", "2345-7", "95", "mg/dL"),
			observationItem("Sodium", "2951-2", "140", "mmol/L"),
		},
		Build: func(ctx *BuildContext, children []*Node) (*Node, error) {
			org := NewNode("organizer").SetAttr("classCode", "CLUSTER").SetAttr("moodCode", "EVN")
			for _, ch := range children {
				org.Append(NewNode("component").Append(ch))
			}
			return org, nil
		},
	}
	if err := c.AssembleGroups(ctx, section, "results", []Group{group}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := section.FindAll("entry")
	if len(entries) != 1 {
		t.Fatalf("expected 1 organizer entry, got %d", len(entries))
	}
	components := entries[0].Find("organizer").FindAll("component")
	if len(components) != 2 {
		t.Fatalf("expected 2 organizer components, got %d", len(components))
	}

	for i, comp := range components {
		want := []string{"results-1-1", "results-1-2"}[i]
		if !strings.Contains(comp.XML(), `value="#`+want+`"`) {
			t.Errorf("component %d must reference %q", i, want)
		}
	}
}

func TestComposite_BuildFailurePropagates(t *testing.T) {
	ctx := newTestContext()
	section := NewNode("section")

	items := []Item{{
		Cells: []string{"broken"},
		Build: func(ctx *BuildContext, ref string) (*Node, error) {
			return nil, structuralErrorf("no discriminator for value shape")
		},
	}}
	if err := testComposite().AssembleFlat(ctx, section, "results", items, ""); err == nil {
		t.Error("expected child build failure to propagate")
	}
}
