package cda

import (
	"strings"
	"testing"
)

func TestNode_XML_AttributeOrder(t *testing.T) {
	n := NewNode("code").
		SetAttr("code", "2345-7").
		SetAttr("codeSystem", "2.16.840.1.113883.6.1").
		SetAttr("displayName", "Glucose")

	got := n.XML()
	want := `<code code="2345-7" codeSystem="2.16.840.1.113883.6.1" displayName="Glucose"/>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNode_SetAttr_ReplacesInPlace(t *testing.T) {
	n := NewNode("statusCode").SetAttr("code", "active").SetAttr("moodCode", "EVN")
	n.SetAttr("code", "completed")

	got := n.XML()
	want := `<statusCode code="completed" moodCode="EVN"/>`
	if got != want {
		t.Errorf("expected replaced attribute to keep its position: got %q, want %q", got, want)
	}
}

func TestNode_XML_TextEscaping(t *testing.T) {
	n := NewNode("title").SetText(`Results & "Notes" <2024>`)
	got := n.XML()

	if strings.Contains(got, "<2024>") {
		t.Error("text content was not escaped")
	}
	if !strings.Contains(got, "&amp;") {
		t.Error("expected escaped ampersand")
	}
}

func TestNode_XML_AttributeEscaping(t *testing.T) {
	n := NewNode("value").SetAttr("unit", `mg/dL "approx"`)
	got := n.XML()

	if strings.Contains(got, `="mg/dL ""`) {
		t.Errorf("attribute value was not escaped: %q", got)
	}
}

func TestNode_XML_NestedChildren(t *testing.T) {
	root := NewNode("observation").
		SetAttr("classCode", "OBS").
		Append(
			NewNode("code").SetAttr("code", "2345-7"),
			NewNode("statusCode").SetAttr("code", "completed"),
		)

	got := root.XML()
	want := `<observation classCode="OBS"><code code="2345-7"/><statusCode code="completed"/></observation>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNode_IndentXML(t *testing.T) {
	root := NewNode("section").Append(NewNode("title").SetText("Results"))
	got := root.IndentXML()

	if !strings.Contains(got, "\n  <title>Results</title>") {
		t.Errorf("expected two-space indented child, got %q", got)
	}
	if !strings.HasSuffix(got, "</section>") {
		t.Errorf("expected closing tag on its own level, got %q", got)
	}
}

func TestNode_Find(t *testing.T) {
	root := NewNode("entry").Append(
		NewNode("templateId").SetAttr("root", "1.2.3"),
		NewNode("templateId").SetAttr("root", "4.5.6"),
		NewNode("code"),
	)

	if root.Find("code") == nil {
		t.Error("expected to find code child")
	}
	if root.Find("value") != nil {
		t.Error("did not expect a value child")
	}
	if got := len(root.FindAll("templateId")); got != 2 {
		t.Errorf("expected 2 templateId children, got %d", got)
	}
}

func TestDocument_NamespacesAndDeclaration(t *testing.T) {
	root := NewNode("ClinicalDocument").Append(NewNode("title").SetText("CCD"))
	got := string(Document(root, false))

	if !strings.HasPrefix(got, "<?xml") {
		t.Error("expected XML declaration")
	}
	if !strings.Contains(got, `xmlns="urn:hl7-org:v3"`) {
		t.Error("expected CDA namespace on root")
	}
	if !strings.Contains(got, `xmlns:xsi=`) {
		t.Error("expected xsi namespace on root")
	}
}

func TestDocument_DoesNotMutateRoot(t *testing.T) {
	root := NewNode("ClinicalDocument")
	_ = Document(root, false)

	if len(root.Attrs) != 0 {
		t.Errorf("Document must not attach namespaces to the caller's node, got %d attrs", len(root.Attrs))
	}
}

func TestNode_XML_Deterministic(t *testing.T) {
	build := func() string {
		return NewNode("organizer").
			SetAttr("classCode", "CLUSTER").
			Append(
				NewNode("code").SetAttr("code", "24323-8"),
				NewNode("statusCode").SetAttr("code", "completed"),
			).XML()
	}
	if build() != build() {
		t.Error("identical trees must serialize identically")
	}
}
