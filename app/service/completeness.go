package service

import (
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

type CompletenessPolicy interface {
	Check(profile *entity.ContactProfile) []entity.Violation
}

// InternalPolicy: staff accounts only need an email address.
type InternalPolicy struct{}

func (InternalPolicy) Check(profile *entity.ContactProfile) []entity.Violation {
	violations := make([]entity.Violation, 0)
	if isBlank(profile.Email) {
		violations = append(violations, entity.ViolationMissingEmail)
	}
	return violations
}

// ExternalPolicy: customers need an email or a mobile number, and a landline
// number when they are reachable by mobile only.
type ExternalPolicy struct{}

func (ExternalPolicy) Check(profile *entity.ContactProfile) []entity.Violation {
	violations := make([]entity.Violation, 0)

	hasEmail := !isBlank(profile.Email)
	hasMobile := !isBlank(profile.Mobile)

	switch {
	case !hasEmail && !hasMobile:
		violations = append(violations, entity.ViolationMissingEmail, entity.ViolationMissingMobile)
	case !hasEmail && isBlank(profile.Phone):
		violations = append(violations, entity.ViolationMissingPhone)
	}
	return violations
}

type CompletenessChecker struct {
	internal CompletenessPolicy
	external CompletenessPolicy
}

func NewCompletenessChecker() *CompletenessChecker {
	return &CompletenessChecker{
		internal: InternalPolicy{},
		external: ExternalPolicy{},
	}
}

func (c *CompletenessChecker) Check(profile *entity.ContactProfile) []entity.Violation {
	if profile == nil {
		return make([]entity.Violation, 0)
	}
	if profile.Kind == entity.UserKindInternal {
		return c.internal.Check(profile)
	}
	return c.external.Check(profile)
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
