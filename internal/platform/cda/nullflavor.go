package cda

// NullFlavor reason codes from the HL7 NullFlavor vocabulary
// (2.16.840.1.113883.5.1008). Emitted in place of absent required values.
const (
	NullNoInformation = "NI"   // no information
	NullUnknown       = "UNK"  // unknown
	NullAskedUnknown  = "ASKU" // asked but unknown
	NullNotApplicable = "NA"   // not applicable
	NullOther         = "OTH"  // other (value not in required code system)
)

// FieldCategory selects the default nullFlavor for an absent required
// field. Builders decide which category a field belongs to; the decision
// algorithm itself is the same everywhere.
type FieldCategory int

const (
	CategoryText FieldCategory = iota // free text and section-level content
	CategoryIdentifier
	CategoryCoded
)

// Decision is the three-way outcome of the missing-data policy.
type Decision int

const (
	// Emit the value as given.
	Emit Decision = iota
	// Omit the field entirely.
	Omit
	// Marker replaces the value with a nullFlavor reason code.
	Marker
)

// Decide applies the missing-data policy to one field:
//
//   - present, non-empty value: Emit
//   - absent value, required:   Marker with the category's default reason
//   - absent value, optional:   Omit
//
// The returned string is the value to emit or the nullFlavor reason.
func Decide(value string, required bool, category FieldCategory) (Decision, string) {
	return DecideReason(value, required, defaultReason(category))
}

// DecideReason is Decide with a caller-supplied marker reason, for fields
// whose absence has a known cause (e.g. "asked but unknown").
func DecideReason(value string, required bool, reason string) (Decision, string) {
	if value != "" {
		return Emit, value
	}
	if required {
		return Marker, reason
	}
	return Omit, ""
}

func defaultReason(category FieldCategory) string {
	switch category {
	case CategoryIdentifier:
		return NullUnknown
	case CategoryCoded:
		return NullOther
	default:
		return NullNoInformation
	}
}

// ApplyText appends a child element carrying the value as text content,
// a nullFlavor marker, or nothing, per the policy.
func (n *Node) ApplyText(tag, value string, required bool) *Node {
	switch d, out := Decide(value, required, CategoryText); d {
	case Emit:
		n.Append(NewNode(tag).SetText(out))
	case Marker:
		n.Append(NewNode(tag).SetAttr("nullFlavor", out))
	}
	return n
}

// ApplyValueAttr appends a child element carrying the value in its "value"
// attribute, a nullFlavor marker, or nothing, per the policy.
func (n *Node) ApplyValueAttr(tag, value string, required bool) *Node {
	switch d, out := Decide(value, required, CategoryText); d {
	case Emit:
		n.Append(NewNode(tag).SetAttr("value", out))
	case Marker:
		n.Append(NewNode(tag).SetAttr("nullFlavor", out))
	}
	return n
}
