package models

// Sections is every section a user has saved. Any of them may be absent.
type Sections struct {
	PersonalInfo *PersonalInfo     `json:"personal_info"`
	Education    *Education        `json:"education"`
	Document     *IdentityDocument `json:"document"`
	JobHistory   []JobEntry        `json:"job_history"`
}

// SectionStatus is the evaluation of one section.
type SectionStatus struct {
	IsComplete bool   `json:"is_complete"`
	Summary    string `json:"summary"`
}

// Completeness is the evaluation of all sections.
type Completeness struct {
	PersonalInfo    SectionStatus `json:"personal_info"`
	Education       SectionStatus `json:"education"`
	Document        SectionStatus `json:"document"`
	JobHistory      SectionStatus `json:"job_history"`
	IsAllComplete   bool          `json:"is_all_complete"`
	ProfileComplete bool          `json:"profile_complete"`
}
