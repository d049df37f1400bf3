package ccd

import "github.com/openclinic/cdabuild/internal/platform/cda"

// Revision stamps for the supported specification releases.
const (
	revR21 = "2015-08-01"
	revR20 = "2014-06-09"
)

// LOINC section codes.
const (
	loincCCD         = "34133-9"
	loincResults     = "30954-2"
	loincVitalSigns  = "8716-3"
	loincProblems    = "11450-4"
	loincAllergies   = "48765-2"
	loincMedications = "10160-0"
)

// DefaultTemplateTable declares the template identities stamped by every
// builder type in the CCD catalog, per release. R2.1 templates carry both
// the unversioned root and the revision-stamped form, in that order.
func DefaultTemplateTable() *cda.TemplateTable {
	t := cda.NewTemplateTable()

	register := func(builderType, root, description string) {
		t.Register(builderType, cda.ReleaseR21,
			cda.TemplateIdentity{Root: root, Description: description},
			cda.TemplateIdentity{Root: root, Extension: revR21, Description: description},
		)
		t.Register(builderType, cda.ReleaseR20,
			cda.TemplateIdentity{Root: root, Extension: revR20, Description: description},
		)
	}

	// Document level. The US Realm Header and the CCD document template
	// apply simultaneously.
	t.Register("ccd-document", cda.ReleaseR21,
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.1", Description: "US Realm Header"},
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.1", Extension: revR21, Description: "US Realm Header"},
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.2", Description: "Continuity of Care Document"},
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.2", Extension: revR21, Description: "Continuity of Care Document"},
	)
	t.Register("ccd-document", cda.ReleaseR20,
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.1", Extension: revR20, Description: "US Realm Header"},
		cda.TemplateIdentity{Root: "2.16.840.1.113883.10.20.22.1.2", Extension: revR20, Description: "Continuity of Care Document"},
	)

	// Sections.
	register("results-section", "2.16.840.1.113883.10.20.22.2.3.1", "Results Section (entries required)")
	register("vitals-section", "2.16.840.1.113883.10.20.22.2.4.1", "Vital Signs Section (entries required)")
	register("problems-section", "2.16.840.1.113883.10.20.22.2.5.1", "Problem Section (entries required)")
	register("allergies-section", "2.16.840.1.113883.10.20.22.2.6.1", "Allergies Section (entries required)")
	register("medications-section", "2.16.840.1.113883.10.20.22.2.1.1", "Medications Section (entries required)")

	// Entries.
	register("result-organizer", "2.16.840.1.113883.10.20.22.4.1", "Result Organizer")
	register("result-observation", "2.16.840.1.113883.10.20.22.4.2", "Result Observation")
	register("vitals-organizer", "2.16.840.1.113883.10.20.22.4.26", "Vital Signs Organizer")
	register("vital-sign-observation", "2.16.840.1.113883.10.20.22.4.27", "Vital Sign Observation")
	register("problem-concern-act", "2.16.840.1.113883.10.20.22.4.3", "Problem Concern Act")
	register("problem-observation", "2.16.840.1.113883.10.20.22.4.4", "Problem Observation")
	register("allergy-concern-act", "2.16.840.1.113883.10.20.22.4.30", "Allergy Concern Act")
	register("allergy-observation", "2.16.840.1.113883.10.20.22.4.7", "Allergy Intolerance Observation")
	register("medication-activity", "2.16.840.1.113883.10.20.22.4.16", "Medication Activity")

	return t
}
