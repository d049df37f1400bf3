package cda

// CodeSystem is a formal code-system identity: the OID used on coded
// elements and the canonical display name.
type CodeSystem struct {
	OID  string
	Name string
}

// Vocabulary resolves symbolic code-system names ("LOINC", "SNOMED") to
// their formal identifiers. Lookups are case-insensitive on the symbolic
// name. Unrecognized names pass through unchanged as literal identifiers
// with no canonical name, so callers may supply OIDs or private system
// identifiers directly; clinical data legitimately uses local code systems
// and an unknown system is never an error.
type Vocabulary struct {
	systems map[string]CodeSystem
}

// NewVocabulary returns a resolver preloaded with the code systems used
// across C-CDA documents.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{systems: map[string]CodeSystem{
		"LOINC":       {OID: "2.16.840.1.113883.6.1", Name: "LOINC"},
		"SNOMED":      {OID: "2.16.840.1.113883.6.96", Name: "SNOMED CT"},
		"SNOMED CT":   {OID: "2.16.840.1.113883.6.96", Name: "SNOMED CT"},
		"RXNORM":      {OID: "2.16.840.1.113883.6.88", Name: "RxNorm"},
		"ICD-10-CM":   {OID: "2.16.840.1.113883.6.90", Name: "ICD-10-CM"},
		"CVX":         {OID: "2.16.840.1.113883.12.292", Name: "CVX"},
		"CPT":         {OID: "2.16.840.1.113883.6.12", Name: "CPT"},
		"UCUM":        {OID: "2.16.840.1.113883.6.8", Name: "UCUM"},
		"ACTCODE":     {OID: "2.16.840.1.113883.5.4", Name: "ActCode"},
		"ACTCLASS":    {OID: "2.16.840.1.113883.5.6", Name: "HL7ActClass"},
		"NULLFLAVOR":  {OID: "2.16.840.1.113883.5.1008", Name: "NullFlavor"},
		"ADMINGENDER": {OID: "2.16.840.1.113883.5.1", Name: "AdministrativeGender"},
		"CONFIDENTIALITY": {
			OID: "2.16.840.1.113883.5.25", Name: "Confidentiality",
		},
	}}
}

// Register adds or replaces a symbolic name. Used for configuration-level
// custom vocabulary overrides.
func (v *Vocabulary) Register(name string, cs CodeSystem) {
	v.systems[canonicalKey(name)] = cs
}

// Resolve maps a symbolic code-system name to its formal identity. Unknown
// names are passed through as the OID with an empty canonical name.
func (v *Vocabulary) Resolve(name string) CodeSystem {
	if cs, ok := v.systems[canonicalKey(name)]; ok {
		return cs
	}
	return CodeSystem{OID: name}
}

func canonicalKey(name string) string {
	key := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		key = append(key, c)
	}
	return string(key)
}
