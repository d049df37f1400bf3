// Package ccd assembles Continuity of Care Documents on top of the
// generic CDA engine. Each section is a fixed instantiation of the
// engine's composite builder against its template rule table; clinical
// facts are consumed only through the narrow record contracts below.
package ccd

import "strings"

// Person is the patient demographics contract for the document header.
// Everything beyond the identifier is optional.
type Person interface {
	ID() string
	GivenName() string
	FamilyName() string
	Gender() string
	BirthDate() string
	AddressLine() string
	City() string
	State() string
	PostalCode() string
	Phone() string
}

// LabResult is the capability contract for one laboratory result.
// TestName/TestCode identify the test, ValueShape optionally overrides the
// emitted value shape ("quantity", "coded", "text"); Interpretation and
// ReferenceRange are optional.
type LabResult interface {
	TestName() string
	TestCode() string
	CodeSystem() string
	ResultValue() string
	Unit() string
	ValueShape() string
	Status() string
	EffectiveTime() string
	Interpretation() string
	ReferenceRange() string
}

// ResultPanel groups lab results under one organizer.
type ResultPanel interface {
	PanelName() string
	PanelCode() string
	Status() string
	Results() []LabResult
}

// VitalSign is the contract for one vital-sign measurement.
type VitalSign interface {
	Name() string
	Code() string
	ResultValue() string
	Unit() string
	EffectiveTime() string
}

// Problem is the contract for one problem-list entry.
type Problem interface {
	Name() string
	Code() string
	CodeSystem() string
	Status() string
	OnsetDate() string
}

// Allergy is the contract for one allergy or intolerance.
type Allergy interface {
	Substance() string
	Code() string
	CodeSystem() string
	Reaction() string
	Status() string
}

// Medication is the contract for one medication activity.
type Medication interface {
	Name() string
	Code() string
	Dosage() string
	Status() string
	StartDate() string
}

// ---------------------------------------------------------------------------
// Plain records implementing the contracts, decodable from JSON input.
// ---------------------------------------------------------------------------

// PersonRecord is a plain patient record.
type PersonRecord struct {
	Identifier string `json:"id"`
	Given      string `json:"given_name"`
	Family     string `json:"family_name"`
	Sex        string `json:"gender"`
	Born       string `json:"birth_date"`
	Street     string `json:"address_line"`
	Town       string `json:"city"`
	Region     string `json:"state"`
	Zip        string `json:"postal_code"`
	Telephone  string `json:"phone"`
}

func (p PersonRecord) ID() string          { return p.Identifier }
func (p PersonRecord) GivenName() string   { return p.Given }
func (p PersonRecord) FamilyName() string  { return p.Family }
func (p PersonRecord) Gender() string      { return p.Sex }
func (p PersonRecord) BirthDate() string   { return p.Born }
func (p PersonRecord) AddressLine() string { return p.Street }
func (p PersonRecord) City() string        { return p.Town }
func (p PersonRecord) State() string       { return p.Region }
func (p PersonRecord) PostalCode() string  { return p.Zip }
func (p PersonRecord) Phone() string       { return p.Telephone }

// LabResultRecord is a plain lab result.
type LabResultRecord struct {
	Name      string `json:"test_name"`
	Code      string `json:"test_code"`
	System    string `json:"code_system"`
	Value     string `json:"value"`
	ValueUnit string `json:"unit"`
	Shape     string `json:"value_shape"`
	State     string `json:"status"`
	Effective string `json:"effective_time"`
	Interp    string `json:"interpretation"`
	RefRange  string `json:"reference_range"`
}

func (r LabResultRecord) TestName() string       { return r.Name }
func (r LabResultRecord) TestCode() string       { return r.Code }
func (r LabResultRecord) CodeSystem() string     { return r.System }
func (r LabResultRecord) ResultValue() string    { return r.Value }
func (r LabResultRecord) Unit() string           { return r.ValueUnit }
func (r LabResultRecord) ValueShape() string     { return r.Shape }
func (r LabResultRecord) Status() string         { return r.State }
func (r LabResultRecord) EffectiveTime() string  { return r.Effective }
func (r LabResultRecord) Interpretation() string { return r.Interp }
func (r LabResultRecord) ReferenceRange() string { return r.RefRange }

// ResultPanelRecord is a plain lab panel.
type ResultPanelRecord struct {
	Name    string            `json:"panel_name"`
	Code    string            `json:"panel_code"`
	State   string            `json:"status"`
	Entries []LabResultRecord `json:"results"`
}

func (p ResultPanelRecord) PanelName() string { return p.Name }
func (p ResultPanelRecord) PanelCode() string { return p.Code }
func (p ResultPanelRecord) Status() string    { return p.State }

func (p ResultPanelRecord) Results() []LabResult {
	out := make([]LabResult, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e
	}
	return out
}

// VitalSignRecord is a plain vital-sign measurement.
type VitalSignRecord struct {
	VitalName string `json:"name"`
	VitalCode string `json:"code"`
	Value     string `json:"value"`
	ValueUnit string `json:"unit"`
	Effective string `json:"effective_time"`
}

func (v VitalSignRecord) Name() string          { return v.VitalName }
func (v VitalSignRecord) Code() string          { return v.VitalCode }
func (v VitalSignRecord) ResultValue() string   { return v.Value }
func (v VitalSignRecord) Unit() string          { return v.ValueUnit }
func (v VitalSignRecord) EffectiveTime() string { return v.Effective }

// ProblemRecord is a plain problem-list entry.
type ProblemRecord struct {
	ProblemName string `json:"name"`
	ProblemCode string `json:"code"`
	System      string `json:"code_system"`
	State       string `json:"status"`
	Onset       string `json:"onset_date"`
}

func (p ProblemRecord) Name() string       { return p.ProblemName }
func (p ProblemRecord) Code() string       { return p.ProblemCode }
func (p ProblemRecord) CodeSystem() string { return p.System }
func (p ProblemRecord) Status() string     { return p.State }
func (p ProblemRecord) OnsetDate() string  { return p.Onset }

// AllergyRecord is a plain allergy entry.
type AllergyRecord struct {
	SubstanceName string `json:"substance"`
	SubstanceCode string `json:"code"`
	System        string `json:"code_system"`
	ReactionName  string `json:"reaction"`
	State         string `json:"status"`
}

func (a AllergyRecord) Substance() string  { return a.SubstanceName }
func (a AllergyRecord) Code() string       { return a.SubstanceCode }
func (a AllergyRecord) CodeSystem() string { return a.System }
func (a AllergyRecord) Reaction() string   { return a.ReactionName }
func (a AllergyRecord) Status() string     { return a.State }

// MedicationRecord is a plain medication activity.
type MedicationRecord struct {
	MedName string `json:"name"`
	MedCode string `json:"code"`
	Dose    string `json:"dosage"`
	State   string `json:"status"`
	Start   string `json:"start_date"`
}

func (m MedicationRecord) Name() string      { return m.MedName }
func (m MedicationRecord) Code() string      { return m.MedCode }
func (m MedicationRecord) Dosage() string    { return m.Dose }
func (m MedicationRecord) Status() string    { return m.State }
func (m MedicationRecord) StartDate() string { return m.Start }

// PatientData is the full input to one document build. Absent flags
// sections whose data is knowingly missing, keyed by section name
// ("results", "vitals", "problems", "allergies", "medications") with a
// nullFlavor reason as the value.
type PatientData struct {
	Patient     PersonRecord        `json:"patient"`
	Panels      []ResultPanelRecord `json:"panels"`
	Vitals      []VitalSignRecord   `json:"vitals"`
	Problems    []ProblemRecord     `json:"problems"`
	Allergies   []AllergyRecord     `json:"allergies"`
	Medications []MedicationRecord  `json:"medications"`
	Absent      map[string]string   `json:"absent,omitempty"`
}

func (d *PatientData) absentReason(section string) string {
	if d.Absent == nil {
		return ""
	}
	return d.Absent[section]
}

// hl7Date converts an ISO date or datetime to HL7 form (YYYYMMDD).
func hl7Date(iso string) string {
	if len(iso) > 10 {
		iso = iso[:10]
	}
	return strings.ReplaceAll(iso, "-", "")
}
