package jobs

import "time"

// Apply methods a posting can offer.
const (
	ApplyMethodURL   = "url"
	ApplyMethodEmail = "email"
)

// Field names as the web form and the backend know them.
const (
	FieldCompanyID   = "company_id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldSkills      = "skills"
	FieldSalaryMin   = "salary_min"
	FieldSalaryMax   = "salary_max"
	FieldCurrency    = "currency"
	FieldDeadline    = "deadline"
	FieldApplyMethod = "apply_method"
	FieldApplyURL    = "apply_url"
	FieldApplyEmail  = "apply_email"
)

// FieldOrder is the canonical form order, used to pick the first invalid
// field on submit so the caller can focus it.
var FieldOrder = []string{
	FieldCompanyID,
	FieldTitle,
	FieldDescription,
	FieldSkills,
	FieldSalaryMin,
	FieldSalaryMax,
	FieldCurrency,
	FieldDeadline,
	FieldApplyMethod,
	FieldApplyURL,
	FieldApplyEmail,
}

// Draft is a job posting as composed in the admin form. The draft is owned by
// the caller; validation classifies it and never modifies it.
type Draft struct {
	CompanyID   string    `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	SalaryMin   int64     `json:"salary_min"`
	SalaryMax   int64     `json:"salary_max"`
	Currency    string    `json:"currency"`
	Deadline    time.Time `json:"deadline"`
	ApplyMethod string    `json:"apply_method"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	ApplyEmail  string    `json:"apply_email,omitempty"`
}
