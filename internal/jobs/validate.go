package jobs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jobdeck/admin-backend/internal/identity"
	"github.com/jobdeck/admin-backend/internal/permission"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 100
	descriptionMinLen = 20
	descriptionMaxLen = 5000
	maxSkills         = 20
)

// salaryBand is the plausible annual salary range for a currency.
type salaryBand struct {
	Min int64
	Max int64
}

var salaryBands = map[string]salaryBand{
	"USD": {Min: 15000, Max: 2000000},
	"CAD": {Min: 15000, Max: 2000000},
	"EUR": {Min: 12000, Max: 1500000},
	"GBP": {Min: 12000, Max: 1500000},
	"INR": {Min: 100000, Max: 100000000},
}

// ErrorSet maps field names to their messages. Every validation pass builds a
// fresh set; sets are never merged, so stale errors cannot linger.
type ErrorSet map[string][]string

func (e ErrorSet) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e ErrorSet) Empty() bool { return len(e) == 0 }

// First returns the first field in canonical form order that has an error.
func (e ErrorSet) First() string {
	for _, field := range FieldOrder {
		if len(e[field]) > 0 {
			return field
		}
	}
	return ""
}

// ValidateDraft runs the whole-form pass: every generic field rule plus the
// admin-context precondition on the target company.
func ValidateDraft(d Draft, cls identity.Classification, snap permission.Snapshot) ErrorSet {
	errs := ErrorSet{}
	for _, field := range FieldOrder {
		for _, msg := range validateField(d, field, cls, snap) {
			errs.Add(field, msg)
		}
	}
	return errs
}

func validateField(d Draft, field string, cls identity.Classification, snap permission.Snapshot) []string {
	switch field {
	case FieldCompanyID:
		if strings.TrimSpace(d.CompanyID) == "" {
			return []string{"A target company is required."}
		}
		if decision := permission.Decide(permission.ActionPostJob, d.CompanyID, cls, snap); !decision.Allowed {
			return []string{fmt.Sprintf("Cannot post for this company: %s.", decision.Reason)}
		}
	case FieldTitle:
		title := strings.TrimSpace(d.Title)
		if title == "" {
			return []string{"Title is required."}
		}
		if len(title) < titleMinLen {
			return []string{fmt.Sprintf("Title must be at least %d characters.", titleMinLen)}
		}
		if len(title) > titleMaxLen {
			return []string{fmt.Sprintf("Title must be at most %d characters.", titleMaxLen)}
		}
	case FieldDescription:
		desc := strings.TrimSpace(d.Description)
		if desc == "" {
			return []string{"Description is required."}
		}
		if len(desc) < descriptionMinLen {
			return []string{fmt.Sprintf("Description must be at least %d characters.", descriptionMinLen)}
		}
		if len(desc) > descriptionMaxLen {
			return []string{fmt.Sprintf("Description must be at most %d characters.", descriptionMaxLen)}
		}
	case FieldSkills:
		if len(d.Skills) == 0 {
			return []string{"At least one skill is required."}
		}
		if len(d.Skills) > maxSkills {
			return []string{fmt.Sprintf("At most %d skills are allowed.", maxSkills)}
		}
		for _, s := range d.Skills {
			if strings.TrimSpace(s) == "" {
				return []string{"Skills must not be blank."}
			}
		}
	case FieldSalaryMin:
		band, ok := salaryBands[d.Currency]
		if !ok {
			return nil // reported on the currency field
		}
		if d.SalaryMin <= 0 {
			return []string{"Minimum salary is required."}
		}
		if d.SalaryMin < band.Min || d.SalaryMin > band.Max {
			return []string{fmt.Sprintf("Minimum salary must be between %d and %d %s.", band.Min, band.Max, d.Currency)}
		}
	case FieldSalaryMax:
		band, ok := salaryBands[d.Currency]
		if !ok {
			return nil
		}
		if d.SalaryMax <= 0 {
			return []string{"Maximum salary is required."}
		}
		if d.SalaryMax < band.Min || d.SalaryMax > band.Max {
			return []string{fmt.Sprintf("Maximum salary must be between %d and %d %s.", band.Min, band.Max, d.Currency)}
		}
		if d.SalaryMin > 0 && d.SalaryMax < d.SalaryMin {
			return []string{"Maximum salary must be greater than minimum salary."}
		}
	case FieldCurrency:
		if strings.TrimSpace(d.Currency) == "" {
			return []string{"Currency is required."}
		}
		if _, ok := salaryBands[d.Currency]; !ok {
			return []string{fmt.Sprintf("Currency %q is not supported.", d.Currency)}
		}
	case FieldDeadline:
		if d.Deadline.IsZero() {
			return []string{"Application deadline is required."}
		}
		if !d.Deadline.After(time.Now()) {
			return []string{"Application deadline must be in the future."}
		}
	case FieldApplyMethod:
		switch d.ApplyMethod {
		case ApplyMethodURL, ApplyMethodEmail:
		case "":
			return []string{"Application method is required."}
		default:
			return []string{fmt.Sprintf("Application method %q is not supported.", d.ApplyMethod)}
		}
	case FieldApplyURL:
		if d.ApplyMethod != ApplyMethodURL {
			return nil
		}
		if strings.TrimSpace(d.ApplyURL) == "" {
			return []string{"Application URL is required."}
		}
		u, err := url.Parse(d.ApplyURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return []string{"Application URL must be a valid http(s) URL."}
		}
	case FieldApplyEmail:
		if d.ApplyMethod != ApplyMethodEmail {
			return nil
		}
		email := strings.TrimSpace(d.ApplyEmail)
		if email == "" {
			return []string{"Application email is required."}
		}
		at := strings.Index(email, "@")
		if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
			return []string{"Application email must be a valid address."}
		}
	}
	return nil
}

// FormState tracks which fields the admin has interacted with so errors are
// not shown for untouched fields. One instance per form; not safe for
// concurrent use.
type FormState struct {
	touched map[string]struct{}
}

func NewFormState() *FormState {
	return &FormState{touched: map[string]struct{}{}}
}

// ValidateField is the on-blur pass: it marks the field touched and returns
// its current messages.
func (f *FormState) ValidateField(d Draft, field string, cls identity.Classification, snap permission.Snapshot) []string {
	f.touched[field] = struct{}{}
	return validateField(d, field, cls, snap)
}

func (f *FormState) Touched(field string) bool {
	_, ok := f.touched[field]
	return ok
}

// Visible filters a full error set down to touched fields.
func (f *FormState) Visible(errs ErrorSet) ErrorSet {
	visible := ErrorSet{}
	for field, msgs := range errs {
		if f.Touched(field) {
			visible[field] = msgs
		}
	}
	return visible
}

// SubmitResult is the outcome of a whole-form submit pass.
type SubmitResult struct {
	Errors       ErrorSet `json:"errors"`
	FirstInvalid string   `json:"first_invalid,omitempty"`
	OK           bool     `json:"ok"`
}

// Submit marks every field touched and validates the whole draft. The first
// invalid field (in form order) is reported so the caller can focus it.
func (f *FormState) Submit(d Draft, cls identity.Classification, snap permission.Snapshot) SubmitResult {
	for _, field := range FieldOrder {
		f.touched[field] = struct{}{}
	}
	errs := ValidateDraft(d, cls, snap)
	return SubmitResult{
		Errors:       errs,
		FirstInvalid: errs.First(),
		OK:           errs.Empty(),
	}
}
