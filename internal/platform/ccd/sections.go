package ccd

import (
	"github.com/openclinic/cdabuild/internal/platform/cda"
)

func entryComposite(style cda.NarrativeStyle, headers []string, placeholder string) *cda.Composite {
	return &cda.Composite{
		Renderer:    &cda.Renderer{Style: style, Headers: headers},
		WrapTag:     "entry",
		WrapAttrs:   []cda.Attr{{Name: "typeCode", Value: "DRIV"}},
		Empty:       cda.EmptyPlaceholder,
		Placeholder: placeholder,
	}
}

// discriminator fails the build when a record lacks every field that could
// identify it; without one the entry shape cannot be chosen.
func discriminator(what string, fields ...string) error {
	for _, f := range fields {
		if f != "" {
			return nil
		}
	}
	return &cda.StructuralError{Msg: what + " record has no identifying field"}
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

type resultsSection struct {
	data  *PatientData
	style cda.NarrativeStyle
}

func (s *resultsSection) BuilderType() string { return "results-section" }

func (s *resultsSection) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.Append(
		ctx.CodeNode("code", loincResults, "LOINC", "Relevant diagnostic tests and/or laboratory data"),
		cda.NewNode("title").SetText("Results"),
	)

	groups := make([]cda.Group, len(s.data.Panels))
	for i, panel := range s.data.Panels {
		p := panel
		results := p.Results()
		items := make([]cda.Item, len(results))
		for j, result := range results {
			r := result
			items[j] = cda.Item{
				Cells: []string{r.TestName(), resultDisplay(r), mapStatus(r.Status())},
				Build: func(ctx *cda.BuildContext, ref string) (*cda.Node, error) {
					return cda.Build(ctx, "observation", &resultObservation{result: r, ref: ref})
				},
			}
		}
		groups[i] = cda.Group{
			Label: p.PanelName(),
			Items: items,
			Build: func(ctx *cda.BuildContext, children []*cda.Node) (*cda.Node, error) {
				return cda.Build(ctx, "organizer", &resultOrganizer{panel: p, children: children})
			},
		}
	}

	comp := entryComposite(s.style,
		[]string{"Panel", "Test", "Value", "Status"}, "No lab results recorded")
	return comp.AssembleGroups(ctx, node, "results", groups, s.data.absentReason("results"))
}

func resultDisplay(r LabResult) string {
	if r.Unit() != "" {
		return r.ResultValue() + " " + r.Unit()
	}
	return r.ResultValue()
}

type resultOrganizer struct {
	panel    ResultPanel
	children []*cda.Node
}

func (o *resultOrganizer) BuilderType() string { return "result-organizer" }

func (o *resultOrganizer) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	if err := discriminator("result panel", o.panel.PanelCode(), o.panel.PanelName()); err != nil {
		return err
	}
	node.SetAttr("classCode", "CLUSTER").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", o.panel.PanelCode(), "LOINC", o.panel.PanelName()),
		statusNode(o.panel.Status()),
	)
	for _, ch := range o.children {
		node.Append(cda.NewNode("component").Append(ch))
	}
	return nil
}

type resultObservation struct {
	result LabResult
	ref    string
}

func (o *resultObservation) BuilderType() string { return "result-observation" }

func (o *resultObservation) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	r := o.result
	if err := discriminator("lab result", r.TestCode(), r.TestName()); err != nil {
		return err
	}

	node.SetAttr("classCode", "OBS").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", r.TestCode(), codeSystemOr(r.CodeSystem(), "LOINC"), r.TestName()),
		cda.ReferenceText(o.ref),
		statusNode(r.Status()),
	)
	node.ApplyValueAttr("effectiveTime", hl7Date(r.EffectiveTime()), true)

	value := cda.Value{
		Shape:     valueShape(r.ValueShape()),
		Magnitude: r.ResultValue(),
		Unit:      r.Unit(),
		Code:      r.ResultValue(),
		System:    r.CodeSystem(),
		Text:      r.ResultValue(),
	}
	if v := value.Node(ctx, true); v != nil {
		node.Append(v)
	}

	if r.Interpretation() != "" {
		// Observation interpretation code system, passed through literally.
		node.Append(ctx.CodeNode("interpretationCode", r.Interpretation(), "2.16.840.1.113883.5.83", ""))
	}
	if r.ReferenceRange() != "" {
		node.Append(cda.NewNode("referenceRange").
			Append(cda.NewNode("observationRange").
				Append(cda.NewNode("text").SetText(r.ReferenceRange()))))
	}
	return nil
}

func valueShape(name string) cda.ValueShape {
	switch name {
	case "quantity":
		return cda.ShapeQuantity
	case "coded":
		return cda.ShapeCoded
	case "text":
		return cda.ShapeText
	default:
		return cda.ShapeAuto
	}
}

func codeSystemOr(system, fallback string) string {
	if system != "" {
		return system
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Vital signs
// ---------------------------------------------------------------------------

type vitalsSection struct {
	data  *PatientData
	style cda.NarrativeStyle
}

func (s *vitalsSection) BuilderType() string { return "vitals-section" }

func (s *vitalsSection) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.Append(
		ctx.CodeNode("code", loincVitalSigns, "LOINC", "Vital signs"),
		cda.NewNode("title").SetText("Vital Signs"),
	)

	var groups []cda.Group
	if len(s.data.Vitals) > 0 {
		items := make([]cda.Item, len(s.data.Vitals))
		for i, vital := range s.data.Vitals {
			v := vital
			items[i] = cda.Item{
				Cells: []string{v.Name(), vitalDisplay(v), hl7Date(v.EffectiveTime())},
				Build: func(ctx *cda.BuildContext, ref string) (*cda.Node, error) {
					return cda.Build(ctx, "observation", &vitalObservation{vital: v, ref: ref})
				},
			}
		}
		groups = []cda.Group{{
			Label: "Vital Signs",
			Items: items,
			Build: func(ctx *cda.BuildContext, children []*cda.Node) (*cda.Node, error) {
				return cda.Build(ctx, "organizer", &vitalsOrganizer{children: children})
			},
		}}
	}

	comp := entryComposite(s.style,
		[]string{"", "Vital Sign", "Value", "Date"}, "No vital signs recorded")
	return comp.AssembleGroups(ctx, node, "vitals", groups, s.data.absentReason("vitals"))
}

func vitalDisplay(v VitalSign) string {
	if v.Unit() != "" {
		return v.ResultValue() + " " + v.Unit()
	}
	return v.ResultValue()
}

type vitalsOrganizer struct {
	children []*cda.Node
}

func (o *vitalsOrganizer) BuilderType() string { return "vitals-organizer" }

func (o *vitalsOrganizer) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.SetAttr("classCode", "CLUSTER").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", "46680005", "SNOMED", "Vital signs"),
		statusNode("completed"),
	)
	for _, ch := range o.children {
		node.Append(cda.NewNode("component").Append(ch))
	}
	return nil
}

type vitalObservation struct {
	vital VitalSign
	ref   string
}

func (o *vitalObservation) BuilderType() string { return "vital-sign-observation" }

func (o *vitalObservation) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	v := o.vital
	if err := discriminator("vital sign", v.Code(), v.Name()); err != nil {
		return err
	}

	node.SetAttr("classCode", "OBS").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", v.Code(), "LOINC", v.Name()),
		cda.ReferenceText(o.ref),
		statusNode("completed"),
	)
	node.ApplyValueAttr("effectiveTime", hl7Date(v.EffectiveTime()), true)
	if value := (cda.Value{Magnitude: v.ResultValue(), Unit: v.Unit()}).Node(ctx, true); value != nil {
		node.Append(value)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Problems
// ---------------------------------------------------------------------------

type problemsSection struct {
	data  *PatientData
	style cda.NarrativeStyle
}

func (s *problemsSection) BuilderType() string { return "problems-section" }

func (s *problemsSection) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.Append(
		ctx.CodeNode("code", loincProblems, "LOINC", "Problem list"),
		cda.NewNode("title").SetText("Problems"),
	)

	items := make([]cda.Item, len(s.data.Problems))
	for i, problem := range s.data.Problems {
		p := problem
		items[i] = cda.Item{
			Cells: []string{p.Name(), mapStatus(p.Status()), hl7Date(p.OnsetDate())},
			Build: func(ctx *cda.BuildContext, ref string) (*cda.Node, error) {
				return cda.Build(ctx, "act", &problemConcern{problem: p, ref: ref})
			},
		}
	}

	comp := entryComposite(s.style,
		[]string{"Problem", "Status", "Onset"}, "No known problems")
	return comp.AssembleFlat(ctx, node, "problems", items, s.data.absentReason("problems"))
}

type problemConcern struct {
	problem Problem
	ref     string
}

func (c *problemConcern) BuilderType() string { return "problem-concern-act" }

func (c *problemConcern) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	p := c.problem
	if err := discriminator("problem", p.Code(), p.Name()); err != nil {
		return err
	}

	node.SetAttr("classCode", "ACT").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", "CONC", "ActClass", "Concern"),
		statusNode(p.Status()),
	)

	obs, err := cda.Build(ctx, "observation", &problemObservation{problem: p, ref: c.ref})
	if err != nil {
		return err
	}
	node.Append(cda.NewNode("entryRelationship").
		SetAttr("typeCode", "SUBJ").
		Append(obs))
	return nil
}

type problemObservation struct {
	problem Problem
	ref     string
}

func (o *problemObservation) BuilderType() string { return "problem-observation" }

func (o *problemObservation) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	p := o.problem
	node.SetAttr("classCode", "OBS").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", "55607006", "SNOMED", "Problem"),
		cda.ReferenceText(o.ref),
		statusNode("completed"),
	)
	node.ApplyValueAttr("effectiveTime", hl7Date(p.OnsetDate()), false)

	value := cda.Value{
		Shape:   cda.ShapeCoded,
		Code:    p.Code(),
		System:  codeSystemOr(p.CodeSystem(), "SNOMED"),
		Display: p.Name(),
	}
	if v := value.Node(ctx, true); v != nil {
		node.Append(v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Allergies
// ---------------------------------------------------------------------------

type allergiesSection struct {
	data  *PatientData
	style cda.NarrativeStyle
}

func (s *allergiesSection) BuilderType() string { return "allergies-section" }

func (s *allergiesSection) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.Append(
		ctx.CodeNode("code", loincAllergies, "LOINC", "Allergies and adverse reactions"),
		cda.NewNode("title").SetText("Allergies and Adverse Reactions"),
	)

	items := make([]cda.Item, len(s.data.Allergies))
	for i, allergy := range s.data.Allergies {
		a := allergy
		items[i] = cda.Item{
			Cells: []string{a.Substance(), a.Reaction(), mapStatus(a.Status())},
			Build: func(ctx *cda.BuildContext, ref string) (*cda.Node, error) {
				return cda.Build(ctx, "act", &allergyConcern{allergy: a, ref: ref})
			},
		}
	}

	comp := entryComposite(s.style,
		[]string{"Substance", "Reaction", "Status"}, "No known allergies")
	return comp.AssembleFlat(ctx, node, "allergies", items, s.data.absentReason("allergies"))
}

type allergyConcern struct {
	allergy Allergy
	ref     string
}

func (c *allergyConcern) BuilderType() string { return "allergy-concern-act" }

func (c *allergyConcern) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	a := c.allergy
	if err := discriminator("allergy", a.Code(), a.Substance()); err != nil {
		return err
	}

	node.SetAttr("classCode", "ACT").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", "CONC", "ActClass", "Concern"),
		statusNode(a.Status()),
	)

	obs, err := cda.Build(ctx, "observation", &allergyObservation{allergy: a, ref: c.ref})
	if err != nil {
		return err
	}
	node.Append(cda.NewNode("entryRelationship").
		SetAttr("typeCode", "SUBJ").
		Append(obs))
	return nil
}

type allergyObservation struct {
	allergy Allergy
	ref     string
}

func (o *allergyObservation) BuilderType() string { return "allergy-observation" }

func (o *allergyObservation) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	a := o.allergy
	node.SetAttr("classCode", "OBS").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		ctx.CodeNode("code", "ASSERTION", "ActCode", ""),
		cda.ReferenceText(o.ref),
		statusNode("completed"),
	)

	value := cda.Value{
		Shape:   cda.ShapeCoded,
		Code:    "419199007",
		System:  "SNOMED",
		Display: "Allergy to substance",
	}
	if v := value.Node(ctx, true); v != nil {
		node.Append(v)
	}

	substance := cda.NewNode("playingEntity").
		SetAttr("classCode", "MMAT").
		Append(ctx.CodeNode("code", a.Code(), codeSystemOr(a.CodeSystem(), "RxNorm"), a.Substance()))
	node.Append(cda.NewNode("participant").
		SetAttr("typeCode", "CSM").
		Append(cda.NewNode("participantRole").
			SetAttr("classCode", "MANU").
			Append(substance)))

	if a.Reaction() != "" {
		node.Append(cda.NewNode("entryRelationship").
			SetAttr("typeCode", "MFST").
			SetAttr("inversionInd", "true").
			Append(cda.NewNode("observation").
				SetAttr("classCode", "OBS").
				SetAttr("moodCode", "EVN").
				Append(cda.NewNode("text").SetText(a.Reaction()))))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Medications
// ---------------------------------------------------------------------------

type medicationsSection struct {
	data  *PatientData
	style cda.NarrativeStyle
}

func (s *medicationsSection) BuilderType() string { return "medications-section" }

func (s *medicationsSection) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	node.Append(
		ctx.CodeNode("code", loincMedications, "LOINC", "History of Medication use"),
		cda.NewNode("title").SetText("Medications"),
	)

	items := make([]cda.Item, len(s.data.Medications))
	for i, medication := range s.data.Medications {
		m := medication
		items[i] = cda.Item{
			Cells: []string{m.Name(), m.Dosage(), mapStatus(m.Status())},
			Build: func(ctx *cda.BuildContext, ref string) (*cda.Node, error) {
				return cda.Build(ctx, "substanceAdministration", &medicationActivity{med: m, ref: ref})
			},
		}
	}

	comp := entryComposite(s.style,
		[]string{"Medication", "Dosage", "Status"}, "No medications recorded")
	return comp.AssembleFlat(ctx, node, "medications", items, s.data.absentReason("medications"))
}

type medicationActivity struct {
	med Medication
	ref string
}

func (m *medicationActivity) BuilderType() string { return "medication-activity" }

func (m *medicationActivity) Populate(ctx *cda.BuildContext, node *cda.Node) error {
	med := m.med
	if err := discriminator("medication", med.Code(), med.Name()); err != nil {
		return err
	}

	node.SetAttr("classCode", "SBADM").SetAttr("moodCode", "EVN")
	node.Append(
		ctx.InstanceID("", ""),
		cda.ReferenceText(m.ref),
		statusNode(med.Status()),
	)
	node.ApplyValueAttr("effectiveTime", hl7Date(med.StartDate()), false)

	material := cda.NewNode("manufacturedMaterial").
		Append(ctx.CodeNode("code", med.Code(), "RxNorm", med.Name()))
	node.Append(cda.NewNode("consumable").
		Append(cda.NewNode("manufacturedProduct").
			Append(material)))
	return nil
}
