package ccd

import (
	"fmt"
	"time"

	"github.com/openclinic/cdabuild/internal/platform/cda"
)

// Options tunes a Generator. Zero values select the defaults: release
// R2.1, table narratives, the built-in template table and vocabulary, and
// UUID-backed identifier generation.
type Options struct {
	Release   cda.Release
	Style     cda.NarrativeStyle
	Templates *cda.TemplateTable
	Vocab     *cda.Vocabulary
	IDs       cda.IDGenerator
	Now       func() time.Time
}

// Generator builds CCD documents for one custodian organization. It holds
// only immutable configuration and is safe for concurrent use; all
// per-build state lives in the build context created per call.
type Generator struct {
	orgName   string
	orgOID    string
	release   cda.Release
	style     cda.NarrativeStyle
	templates *cda.TemplateTable
	vocab     *cda.Vocabulary
	ids       cda.IDGenerator
	now       func() time.Time
}

// NewGenerator creates a CCD generator for the given custodian
// organization. opts may be nil.
func NewGenerator(orgName, orgOID string, opts *Options) *Generator {
	g := &Generator{
		orgName:   orgName,
		orgOID:    orgOID,
		release:   cda.DefaultRelease,
		style:     cda.StyleTable,
		templates: DefaultTemplateTable(),
		ids:       cda.UUIDGenerator{},
		now:       time.Now,
	}
	if opts == nil {
		return g
	}
	if opts.Release != "" {
		g.release = opts.Release
	}
	if opts.Style != "" {
		g.style = opts.Style
	}
	if opts.Templates != nil {
		g.templates = opts.Templates
	}
	if opts.Vocab != nil {
		g.vocab = opts.Vocab
	}
	if opts.IDs != nil {
		g.ids = opts.IDs
	}
	if opts.Now != nil {
		g.now = opts.Now
	}
	return g
}

// Generate builds the complete document tree for one patient. It either
// returns one finished tree or an error; no partial output is produced.
func (g *Generator) Generate(data *PatientData) (*cda.Node, error) {
	if data == nil {
		return nil, fmt.Errorf("ccd: patient data is nil")
	}
	if data.Patient.ID() == "" {
		return nil, fmt.Errorf("ccd: patient record is required")
	}

	ctx := cda.NewBuildContext(g.release, g.templates)
	ctx.IDs = g.ids
	if g.vocab != nil {
		ctx.Vocab = g.vocab
	}

	return cda.Build(ctx, "ClinicalDocument", &ccdDocument{gen: g, data: data})
}

// GenerateXML builds the document and serializes it with the XML
// declaration and document namespaces.
func (g *Generator) GenerateXML(data *PatientData, indent bool) ([]byte, error) {
	root, err := g.Generate(data)
	if err != nil {
		return nil, err
	}
	return cda.Document(root, indent), nil
}

// ccdDocument populates the ClinicalDocument element: header parts first,
// then one component per section of the catalog.
type ccdDocument struct {
	gen  *Generator
	data *PatientData
}

func (d *ccdDocument) BuilderType() string { return "ccd-document" }

func (d *ccdDocument) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	g := d.gen
	now := g.now().UTC()

	node.Append(
		cda.NewNode("realmCode").SetAttr("code", "US"),
		cda.NewNode("typeId").
			SetAttr("root", "2.16.840.1.113883.1.3").
			SetAttr("extension", "POCD_HD000040"),
		ctx.InstanceID(ctx.IDs.Generate(), ""),
		ctx.CodeNode("code", loincCCD, "LOINC", "Summarization of Episode Note"),
		cda.NewNode("title").SetText("Continuity of Care Document"),
		cda.NewNode("effectiveTime").SetAttr("value", hl7Time(now)),
		ctx.CodeNode("confidentialityCode", "N", "Confidentiality", ""),
		cda.NewNode("languageCode").SetAttr("code", "en-US"),
	)

	node.Append(
		g.recordTarget(ctx, d.data.Patient),
		g.author(ctx, now),
		g.custodian(ctx),
		g.documentationOf(now),
	)

	body := cda.NewNode("structuredBody")
	sections := []cda.Populator{
		&resultsSection{data: d.data, style: g.style},
		&vitalsSection{data: d.data, style: g.style},
		&problemsSection{data: d.data, style: g.style},
		&allergiesSection{data: d.data, style: g.style},
		&medicationsSection{data: d.data, style: g.style},
	}
	for _, s := range sections {
		section, err := cda.Build(ctx, "section", s)
		if err != nil {
			return err
		}
		body.Append(cda.NewNode("component").Append(section))
	}
	node.Append(cda.NewNode("component").Append(body))

	return nil
}

// hl7Time formats a timestamp as YYYYMMDDHHmmss.
func hl7Time(t time.Time) string {
	return t.Format("20060102150405")
}

// mapStatus translates application status vocabulary to the document's
// act-status vocabulary. Unknown statuses pass through unchanged, matching
// the vocabulary passthrough policy.
func mapStatus(status string) string {
	switch status {
	case "completed", "final", "finished":
		return "completed"
	case "preliminary", "amended":
		return "active"
	default:
		return status
	}
}

// statusNode builds a statusCode element, marking the reason when the
// record carries no status at all.
func statusNode(status string) *cda.Node {
	d, out := cda.Decide(mapStatus(status), true, cda.CategoryCoded)
	n := cda.NewNode("statusCode")
	if d == cda.Marker {
		return n.SetAttr("nullFlavor", out)
	}
	return n.SetAttr("code", out)
}
