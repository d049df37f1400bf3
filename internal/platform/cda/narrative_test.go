package cda

import (
	"strings"
	"testing"
)

func TestRenderer_RenderFlat_Table(t *testing.T) {
	ctx := newTestContext()
	r := &Renderer{Style: StyleTable, Headers: []string{"Test", "Value", "Status"}}

	text, rows, err := r.RenderFlat(ctx, "results", [][]string{
		{"Glucose", "95 mg/dL", "completed"},
		{"Sodium", "140 mmol/L", "completed"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Ref != "results-1" || rows[1].Ref != "results-2" {
		t.Errorf("flat refs must be prefix-index, got %q, %q", rows[0].Ref, rows[1].Ref)
	}

	xml := text.XML()
	if !strings.Contains(xml, "<th>Test</th>") {
		t.Error("expected header row")
	}
	if !strings.Contains(xml, `<content ID="results-1">Glucose</content>`) {
		t.Errorf("expected content node with ref on first cell, got %q", xml)
	}
	if !strings.Contains(xml, "<td>95 mg/dL</td>") {
		t.Error("expected plain td for continuation cells")
	}
}

func TestRenderer_RenderFlat_List(t *testing.T) {
	ctx := newTestContext()
	r := &Renderer{Style: StyleList}

	text, _, err := r.RenderFlat(ctx, "meds", [][]string{{"Lisinopril 10 MG", "active"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	xml := text.XML()
	if !strings.Contains(xml, "<list ") || !strings.Contains(xml, "<item>") {
		t.Errorf("expected list form, got %q", xml)
	}
	if !strings.Contains(xml, `ID="meds-1"`) {
		t.Errorf("expected ref on list item content, got %q", xml)
	}
}

func TestRenderer_RenderFlat_Paragraph(t *testing.T) {
	ctx := newTestContext()
	r := &Renderer{Style: StyleParagraph}

	text, _, err := r.RenderFlat(ctx, "notes", [][]string{{"Patient counseled on diet"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text.XML(), "<paragraph>") {
		t.Errorf("expected paragraph form, got %q", text.XML())
	}
}

func TestRenderer_RenderGroups_RefFormatAndLabel(t *testing.T) {
	ctx := newTestContext()
	r := &Renderer{Style: StyleTable, Headers: []string{"Panel", "Test", "Value"}}

	text, refs, err := r.RenderGroups(ctx, "results", []RowGroup{
		{Label: "Basic Metabolic Panel", Rows: [][]string{
			{"Glucose", "95 mg/dL"},
			{"Sodium", "140 mmol/L"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if refs[0][0].Ref != "results-1-1" || refs[0][1].Ref != "results-1-2" {
		t.Errorf("grouped refs must be prefix-group-item, got %q, %q", refs[0][0].Ref, refs[0][1].Ref)
	}

	xml := text.XML()
	// Panel label only on the first row of the group.
	if strings.Count(xml, "Basic Metabolic Panel") != 1 {
		t.Errorf("panel label must appear exactly once, got %q", xml)
	}
	if !strings.Contains(xml, `<content ID="results-1-1">Basic Metabolic Panel</content>`) {
		t.Errorf("label must be the first cell of the first row, got %q", xml)
	}
}

func TestRenderer_DuplicatePrefixFails(t *testing.T) {
	ctx := newTestContext()
	r := &Renderer{Style: StyleTable}

	if _, _, err := r.RenderFlat(ctx, "results", [][]string{{"a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := r.RenderFlat(ctx, "results", [][]string{{"b"}}); err == nil {
		t.Error("reusing a prefix within one build must fail on duplicate refs")
	}
}

func TestRenderer_Placeholder(t *testing.T) {
	r := &Renderer{Style: StyleTable}

	got := r.Placeholder("").XML()
	if got != "<text><paragraph>No data recorded</paragraph></text>" {
		t.Errorf("unexpected default placeholder %q", got)
	}

	custom := r.Placeholder("No known allergies").XML()
	if !strings.Contains(custom, "No known allergies") {
		t.Errorf("expected custom placeholder text, got %q", custom)
	}
}

func TestRenderer_Deterministic(t *testing.T) {
	render := func() string {
		ctx := newTestContext()
		r := &Renderer{Style: StyleTable, Headers: []string{"A"}}
		text, _, err := r.RenderFlat(ctx, "x", [][]string{{"one"}, {"two"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return text.XML()
	}
	if render() != render() {
		t.Error("same rows and prefix must render identically")
	}
}
