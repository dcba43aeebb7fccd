package identity

import (
	"strings"

	"github.com/google/uuid"
)

// RoleTypeSuperAdmin is the reserved role type for platform administrators.
const RoleTypeSuperAdmin = "super_admin"

// Principal is the authenticated actor as issued by the session layer.
// Immutable for the duration of a session; this package never modifies it.
type Principal struct {
	ID          uuid.UUID
	Email       string
	RoleType    string
	IsStaff     bool
	IsSuperuser bool
}

// Rule names the signal that produced a classification, for audit and tests.
type Rule string

const (
	RuleNone           Rule = "none"
	RuleRoleType       Rule = "role_type"
	RuleStaffSuperuser Rule = "staff_superuser"
	RuleBootstrapEmail Rule = "bootstrap_email"
)

// Classification is the derived admin/non-admin decision plus the rule that
// produced it. Derived on demand, never persisted.
type Classification struct {
	IsAdmin bool
	Rule    Rule
}

// Classifier resolves a Principal to a Classification. The bootstrap email
// allow-list is a temporary mechanism (see config.AdminConfig); it is injected
// here rather than hard-coded so it can be retired without a code change.
type Classifier struct {
	bootstrapEmails map[string]struct{}
}

func NewClassifier(bootstrapEmails []string) *Classifier {
	set := make(map[string]struct{}, len(bootstrapEmails))
	for _, e := range bootstrapEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &Classifier{bootstrapEmails: set}
}

// Classify applies the admin signals in precedence order. Any single signal is
// sufficient; the first matching rule is reported. Pure: no I/O, no state.
func (c *Classifier) Classify(p Principal) Classification {
	if p.RoleType == RoleTypeSuperAdmin {
		return Classification{IsAdmin: true, Rule: RuleRoleType}
	}
	if p.IsStaff && p.IsSuperuser {
		return Classification{IsAdmin: true, Rule: RuleStaffSuperuser}
	}
	if _, ok := c.bootstrapEmails[strings.ToLower(strings.TrimSpace(p.Email))]; ok {
		return Classification{IsAdmin: true, Rule: RuleBootstrapEmail}
	}
	return Classification{IsAdmin: false, Rule: RuleNone}
}
