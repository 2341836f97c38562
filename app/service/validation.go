package service

import (
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/metrics"
)

type ContactValidator interface {
	Validate(profile *entity.ContactProfile) []entity.Violation
}

// ValidationService is the single entry point for full profile validation:
// completeness violations first, then uniqueness violations.
type ValidationService struct {
	completeness *CompletenessChecker
	uniqueness   *UniquenessChecker
	metrics      *metrics.Metrics
}

func NewValidationService(completeness *CompletenessChecker, uniqueness *UniquenessChecker, m *metrics.Metrics) *ValidationService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &ValidationService{
		completeness: completeness,
		uniqueness:   uniqueness,
		metrics:      m,
	}
}

func (s *ValidationService) Validate(profile *entity.ContactProfile) []entity.Violation {
	violations := make([]entity.Violation, 0)
	if profile == nil {
		return violations
	}

	violations = append(violations, s.completeness.Check(profile)...)
	violations = append(violations, s.uniqueness.Check(profile)...)

	s.metrics.IncrementValidations()
	for _, v := range violations {
		s.metrics.ObserveViolation(string(v))
	}

	if len(violations) > 0 {
		logrus.WithFields(logrus.Fields{
			"user_id":    profile.UserID,
			"violations": violations,
		}).Debug("Profile validation reported violations")
	}

	return violations
}
