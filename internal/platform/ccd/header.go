package ccd

import (
	"time"

	"github.com/openclinic/cdabuild/internal/platform/cda"
)

// recordTarget builds the patient header. Name parts and birth time follow
// the missing-data policy: the patient identifier is required, everything
// else renders a marker or is omitted per field category.
func (g *Generator) recordTarget(ctx *cda.BuildContext, p Person) *cda.Node {
	role := cda.NewNode("patientRole").
		Append(ctx.InstanceID(g.orgOID, p.ID()))

	if addr := patientAddress(p); addr != nil {
		role.Append(addr)
	}
	if p.Phone() != "" {
		role.Append(cda.NewNode("telecom").
			SetAttr("use", "HP").
			SetAttr("value", "tel:"+p.Phone()))
	}

	patient := cda.NewNode("patient")

	name := cda.NewNode("name")
	name.ApplyText("given", p.GivenName(), false)
	name.ApplyText("family", p.FamilyName(), false)
	patient.Append(name)

	if code := mapGender(p.Gender()); code != "" {
		patient.Append(
			ctx.CodeNode("administrativeGenderCode", code, "AdminGender", p.Gender()),
		)
	}
	patient.ApplyValueAttr("birthTime", hl7Date(p.BirthDate()), false)

	role.Append(patient)
	return cda.NewNode("recordTarget").Append(role)
}

// author identifies this software as the authoring device for the
// represented organization.
func (g *Generator) author(ctx *cda.BuildContext, now time.Time) *cda.Node {
	device := cda.NewNode("assignedAuthoringDevice").
		Append(cda.NewNode("softwareName").SetText("cdabuild"))

	org := cda.NewNode("representedOrganization").
		Append(ctx.InstanceID(g.orgOID, "")).
		Append(cda.NewNode("name").SetText(g.orgName))

	assigned := cda.NewNode("assignedAuthor").
		Append(ctx.InstanceID(g.orgOID, "")).
		Append(device).
		Append(org)

	return cda.NewNode("author").
		Append(cda.NewNode("time").SetAttr("value", hl7Time(now))).
		Append(assigned)
}

func (g *Generator) custodian(ctx *cda.BuildContext) *cda.Node {
	org := cda.NewNode("representedCustodianOrganization").
		Append(ctx.InstanceID(g.orgOID, "")).
		Append(cda.NewNode("name").SetText(g.orgName))

	return cda.NewNode("custodian").
		Append(cda.NewNode("assignedCustodian").Append(org))
}

func (g *Generator) documentationOf(now time.Time) *cda.Node {
	stamp := hl7Time(now)
	event := cda.NewNode("serviceEvent").
		SetAttr("classCode", "PCPR").
		Append(cda.NewNode("effectiveTime").
			Append(cda.NewNode("low").SetAttr("value", stamp)).
			Append(cda.NewNode("high").SetAttr("value", stamp)))

	return cda.NewNode("documentationOf").Append(event)
}

// patientAddress builds the addr element, or nil when no part is known.
func patientAddress(p Person) *cda.Node {
	if p.AddressLine() == "" && p.City() == "" && p.State() == "" && p.PostalCode() == "" {
		return nil
	}
	addr := cda.NewNode("addr").SetAttr("use", "HP")
	addr.ApplyText("streetAddressLine", p.AddressLine(), false)
	addr.ApplyText("city", p.City(), false)
	addr.ApplyText("state", p.State(), false)
	addr.ApplyText("postalCode", p.PostalCode(), false)
	return addr
}

// mapGender maps application gender values to administrative gender codes.
// Unmapped values yield no element rather than a guess.
func mapGender(gender string) string {
	switch gender {
	case "male", "M":
		return "M"
	case "female", "F":
		return "F"
	case "other", "unknown":
		return "UN"
	default:
		return ""
	}
}
