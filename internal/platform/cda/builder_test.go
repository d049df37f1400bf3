package cda

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// seqGenerator yields predictable identifiers so tests can compare trees.
type seqGenerator struct {
	n int
}

func (g *seqGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type fakePopulator struct {
	builderType string
	err         error
}

func (p *fakePopulator) BuilderType() string { return p.builderType }

func (p *fakePopulator) Populate(ctx *BuildContext, node *Node) error {
	if p.err != nil {
		return p.err
	}
	node.Append(ctx.CodeNode("code", "2345-7", "LOINC", "Glucose"))
	node.Append(NewNode("statusCode").SetAttr("code", "completed"))
	return nil
}

func newTestContext() *BuildContext {
	ctx := NewBuildContext(ReleaseR21, testTable())
	ctx.IDs = &seqGenerator{}
	return ctx
}

func TestBuild_StampsBeforePopulating(t *testing.T) {
	ctx := newTestContext()

	node, err := Build(ctx, "organizer", &fakePopulator{builderType: "result-organizer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if node.Children[0].Tag != "templateId" {
		t.Error("template identity must precede populated content")
	}
	if node.Children[1].Tag != "code" {
		t.Errorf("expected populated content after identities, got %q", node.Children[1].Tag)
	}
}

func TestBuild_UnknownBuilderType(t *testing.T) {
	ctx := newTestContext()

	_, err := Build(ctx, "observation", &fakePopulator{builderType: "nonexistent"})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *ConfigError, got %T", err)
	}
}

func TestBuild_PopulateFailurePropagates(t *testing.T) {
	ctx := newTestContext()
	boom := structuralErrorf("no discriminator")

	_, err := Build(ctx, "organizer", &fakePopulator{builderType: "result-organizer", err: boom})
	if err == nil {
		t.Fatal("expected error from populate step")
	}
	var sErr *StructuralError
	if !errors.As(err, &sErr) {
		t.Errorf("expected *StructuralError, got %T", err)
	}
}

func TestBuild_IdempotentWithSameGenerator(t *testing.T) {
	build := func() string {
		ctx := newTestContext()
		node, err := Build(ctx, "organizer", &fakePopulator{builderType: "result-organizer"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return node.XML()
	}

	if build() != build() {
		t.Error("same data and release must produce structurally identical trees")
	}
}

func TestBuildContext_ClaimRef_RejectsDuplicates(t *testing.T) {
	ctx := newTestContext()

	if err := ctx.ClaimRef("results-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctx.ClaimRef("results-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctx.ClaimRef("results-1"); err == nil {
		t.Error("expected error for duplicate cross-reference identifier")
	}
}

func TestBuildContext_CodeNode(t *testing.T) {
	ctx := newTestContext()

	got := ctx.CodeNode("code", "2345-7", "LOINC", "Glucose").XML()
	want := `<code code="2345-7" codeSystem="2.16.840.1.113883.6.1" codeSystemName="LOINC" displayName="Glucose"/>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildContext_CodeNode_UnknownSystemPassthrough(t *testing.T) {
	ctx := newTestContext()

	got := ctx.CodeNode("code", "ABC", "2.999.42", "Local test").XML()
	if !strings.Contains(got, `codeSystem="2.999.42"`) {
		t.Errorf("unknown system must pass through, got %q", got)
	}
	if strings.Contains(got, "codeSystemName") {
		t.Errorf("unknown system must not invent a canonical name, got %q", got)
	}
}

func TestBuildContext_CodeNode_EmptyCodeMarker(t *testing.T) {
	ctx := newTestContext()

	got := ctx.CodeNode("code", "", "LOINC", "").XML()
	if got != `<code nullFlavor="OTH"/>` {
		t.Errorf("empty coded field defaults to OTH, got %q", got)
	}
}

func TestBuildContext_InstanceID(t *testing.T) {
	ctx := newTestContext()

	got := ctx.InstanceID("2.16.840.1.113883.3.1234", "lab-9").XML()
	want := `<id root="2.16.840.1.113883.3.1234" extension="lab-9"/>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Empty root pulls from the generator boundary.
	generated := ctx.InstanceID("", "").XML()
	if !strings.Contains(generated, `root="id-1"`) {
		t.Errorf("expected generated root, got %q", generated)
	}
}

func TestReferenceText(t *testing.T) {
	got := ReferenceText("results-1-1").XML()
	want := `<text><reference value="#results-1-1"/></text>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
