package service

import (
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
)

type claimantIndex interface {
	Canonical(ch index.Channel, raw string) string
	Claimants(ch index.Channel, canonicalValue string) index.Claimants
}

type channelRule struct {
	channel   index.Channel
	field     func(p *entity.ContactProfile) string
	violation entity.Violation
}

// Checked in this order; the order of reported violations follows it.
var uniquenessRules = []channelRule{
	{
		channel:   index.ChannelEmail,
		field:     func(p *entity.ContactProfile) string { return p.Email },
		violation: entity.ViolationNonUniqueEmail,
	},
	{
		channel:   index.ChannelMobile,
		field:     func(p *entity.ContactProfile) string { return p.Mobile },
		violation: entity.ViolationNonUniqueMobile,
	},
}

// UniquenessChecker answers "is this value already claimed by someone else"
// from the contact index. Answers are as fresh as the index snapshot taken
// for each channel; a concurrent ingestion may or may not be reflected.
type UniquenessChecker struct {
	index claimantIndex
}

func NewUniquenessChecker(idx claimantIndex) *UniquenessChecker {
	return &UniquenessChecker{index: idx}
}

func (c *UniquenessChecker) Check(profile *entity.ContactProfile) []entity.Violation {
	violations := make([]entity.Violation, 0)
	if profile == nil {
		return violations
	}

	for _, rule := range uniquenessRules {
		if !c.IsUnique(rule.channel, profile.UserID, rule.field(profile)) {
			violations = append(violations, rule.violation)
		}
	}
	return violations
}

// IsUnique reports whether raw is free for userID on ch. A blank or
// unparsable value claims nothing and is always unique; missing fields are
// the completeness checker's business.
func (c *UniquenessChecker) IsUnique(ch index.Channel, userID, raw string) bool {
	canonicalValue := c.index.Canonical(ch, raw)
	if canonicalValue == "" {
		return true
	}

	claimants := c.index.Claimants(ch, canonicalValue)
	switch claimants.Len() {
	case 0:
		return true
	case 1:
		return claimants.Contains(userID)
	default:
		return false
	}
}
