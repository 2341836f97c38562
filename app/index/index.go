// Package index keeps the in-memory contact uniqueness index: for every
// channel (email, mobile) a forward mapping user -> canonical value and a
// reverse mapping canonical value -> claiming users.
//
// Writers (Consume, ConsumeAll, Remove) run concurrently with each other and
// with readers. Every reverse-set mutation for one canonical value is atomic
// on that value, and after each completed write the two sides agree: a user
// with a forward entry v is a member of reverse[v], a user without one is in
// no reverse set of that channel.
//
// Reads are best-effort. Claimants returns the set as it was at the instant
// of the call; a write that overlaps a read may or may not be visible to it.
// Uniqueness answers derived from the index are therefore eventually
// consistent, not transactional.
package index

import (
	"sync"

	"github.com/vibast-solutions/ms-go-contacts/app/canonical"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

// MobileNormalizer canonicalizes mobile numbers; false means "no claim".
type MobileNormalizer interface {
	Normalize(raw string) (string, bool)
}

type ChannelStats struct {
	Claims    int `json:"claims"`
	Values    int `json:"values"`
	Conflicts int `json:"conflicts"`
}

type Stats struct {
	Email  ChannelStats `json:"email"`
	Mobile ChannelStats `json:"mobile"`
}

// Conflict is a canonical value claimed by more than one user.
type Conflict struct {
	Value   string   `json:"value"`
	UserIDs []string `json:"user_ids"`
}

type ContactIndex struct {
	// gate is shared by writers and held exclusively by Reset and Rebuild,
	// so a reset never lands in the middle of a profile's transitions.
	gate sync.RWMutex

	normalizer MobileNormalizer
	email      *channelIndex
	mobile     *channelIndex
}

func New(mobile MobileNormalizer) *ContactIndex {
	return NewWithShards(mobile, DefaultShardCount)
}

// NewWithShards builds an index striped over shards locks per side and
// channel (rounded up to a power of two).
func NewWithShards(mobile MobileNormalizer, shards int) *ContactIndex {
	if mobile == nil {
		mobile = canonical.NewPhoneNormalizer(nil, canonical.DefaultRegion)
	}

	return &ContactIndex{
		normalizer: mobile,
		email:      newChannelIndex(shards),
		mobile:     newChannelIndex(shards),
	}
}

// Canonical returns the uniqueness key for raw on ch, or "" when raw claims
// nothing (blank, or an unparsable mobile number).
func (x *ContactIndex) Canonical(ch Channel, raw string) string {
	switch ch {
	case ChannelEmail:
		return canonical.Email(raw)
	case ChannelMobile:
		value, ok := x.normalizer.Normalize(raw)
		if !ok {
			return ""
		}
		return value
	default:
		return ""
	}
}

// Consume records profile as the user's current state on both channels.
// The new canonical value is compared with the stored canonical value before
// anything is touched, so inputs that normalize identically are a no-op.
// A nil profile or one without a user id is ignored.
func (x *ContactIndex) Consume(profile *entity.ContactProfile) Result {
	if profile == nil || profile.UserID == "" {
		return Result{}
	}

	email := x.Canonical(ChannelEmail, profile.Email)
	mobile := x.Canonical(ChannelMobile, profile.Mobile)

	x.gate.RLock()
	defer x.gate.RUnlock()

	return Result{
		Email:  x.email.apply(profile.UserID, email),
		Mobile: x.mobile.apply(profile.UserID, mobile),
	}
}

// ConsumeAll applies Consume to each profile in order, skipping nil entries.
func (x *ContactIndex) ConsumeAll(profiles []*entity.ContactProfile) []Result {
	results := make([]Result, 0, len(profiles))
	for _, profile := range profiles {
		if profile == nil {
			continue
		}
		results = append(results, x.Consume(profile))
	}
	return results
}

// Remove drops every claim the user holds, whatever the profile's own fields
// say. Used when the user is deleted at the source.
func (x *ContactIndex) Remove(profile *entity.ContactProfile) Result {
	if profile == nil || profile.UserID == "" {
		return Result{}
	}

	x.gate.RLock()
	defer x.gate.RUnlock()

	return Result{
		Email:  x.email.apply(profile.UserID, ""),
		Mobile: x.mobile.apply(profile.UserID, ""),
	}
}

// Reset empties both channels. No writer is in flight while it runs.
func (x *ContactIndex) Reset() {
	x.gate.Lock()
	defer x.gate.Unlock()

	x.clear()
}

// Rebuild replaces the whole index with the state described by profiles.
// Writers that arrive during the rebuild wait and are applied on top of it.
func (x *ContactIndex) Rebuild(profiles []*entity.ContactProfile) int {
	x.gate.Lock()
	defer x.gate.Unlock()

	x.clear()

	applied := 0
	for _, profile := range profiles {
		if profile == nil || profile.UserID == "" {
			continue
		}
		x.email.apply(profile.UserID, x.Canonical(ChannelEmail, profile.Email))
		x.mobile.apply(profile.UserID, x.Canonical(ChannelMobile, profile.Mobile))
		applied++
	}
	return applied
}

// Claimants returns a point-in-time snapshot of the users claiming the
// canonical value on ch. The snapshot is immutable.
func (x *ContactIndex) Claimants(ch Channel, canonicalValue string) Claimants {
	if canonicalValue == "" {
		return Claimants{}
	}

	c := x.channel(ch)
	if c == nil {
		return Claimants{}
	}
	return c.snapshot(canonicalValue)
}

// Claim returns the canonical value userID currently holds on ch.
func (x *ContactIndex) Claim(ch Channel, userID string) (string, bool) {
	c := x.channel(ch)
	if c == nil {
		return "", false
	}
	return c.lookup(userID)
}

func (x *ContactIndex) Conflicts(ch Channel) []Conflict {
	c := x.channel(ch)
	if c == nil {
		return []Conflict{}
	}
	return c.conflicts()
}

func (x *ContactIndex) Stats() Stats {
	return Stats{
		Email:  x.email.stats(),
		Mobile: x.mobile.stats(),
	}
}

func (x *ContactIndex) channel(ch Channel) *channelIndex {
	switch ch {
	case ChannelEmail:
		return x.email
	case ChannelMobile:
		return x.mobile
	default:
		return nil
	}
}

func (x *ContactIndex) clear() {
	x.email.clear()
	x.mobile.clear()
}
