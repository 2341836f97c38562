package index_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
)

// digitsOnly treats every run of digits as the canonical number, which is
// enough to exercise separator-insensitive matching without phone metadata.
type digitsOnly struct{}

func (digitsOnly) Normalize(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", false
	}
	return "+" + b.String(), true
}

func newIndex() *index.ContactIndex {
	return index.NewWithShards(digitsOnly{}, 4)
}

func profile(userID, mobile, email string) *entity.ContactProfile {
	return &entity.ContactProfile{UserID: userID, Mobile: mobile, Email: email}
}

func TestConsume_ClaimsBothChannels(t *testing.T) {
	idx := newIndex()

	res := idx.Consume(profile("u1", "0171 1234", " Foo@Bar "))
	if res.Email != index.TransitionClaimed || res.Mobile != index.TransitionClaimed {
		t.Fatalf("expected claimed/claimed, got %v/%v", res.Email, res.Mobile)
	}

	if v, ok := idx.Claim(index.ChannelEmail, "u1"); !ok || v != "foo@bar" {
		t.Fatalf("expected email claim foo@bar, got %q (%v)", v, ok)
	}
	if v, ok := idx.Claim(index.ChannelMobile, "u1"); !ok || v != "+01711234" {
		t.Fatalf("expected mobile claim +01711234, got %q (%v)", v, ok)
	}
	if got := idx.Claimants(index.ChannelEmail, "foo@bar").IDs(); !reflect.DeepEqual(got, []string{"u1"}) {
		t.Fatalf("expected [u1], got %v", got)
	}
}

func TestConsume_Idempotent(t *testing.T) {
	idx := newIndex()
	p := profile("u1", "1234", "foo@bar")

	idx.Consume(p)
	before := idx.Stats()

	res := idx.Consume(p)
	if res.Email != index.TransitionUnchanged || res.Mobile != index.TransitionUnchanged {
		t.Fatalf("expected unchanged/unchanged, got %v/%v", res.Email, res.Mobile)
	}
	if after := idx.Stats(); after != before {
		t.Fatalf("expected stats %+v, got %+v", before, after)
	}
	if n := idx.Claimants(index.ChannelEmail, "foo@bar").Len(); n != 1 {
		t.Fatalf("expected a single claimant, got %d", n)
	}
}

func TestConsume_NormalizedEqualIsNoChange(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u1", "0171-1234", "Foo@Bar"))

	res := idx.Consume(profile("u1", "0171 1234", "foo@BAR"))
	if res.Email != index.TransitionUnchanged {
		t.Fatalf("expected email unchanged, got %v", res.Email)
	}
	if res.Mobile != index.TransitionUnchanged {
		t.Fatalf("expected mobile unchanged, got %v", res.Mobile)
	}
}

func TestConsume_UpdateMovesClaim(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u", "", "a@example.com"))

	res := idx.Consume(profile("u", "", "b@example.com"))
	if res.Email != index.TransitionMoved {
		t.Fatalf("expected moved, got %v", res.Email)
	}
	if idx.Claimants(index.ChannelEmail, "a@example.com").Contains("u") {
		t.Fatalf("expected u released from old value")
	}
	if !idx.Claimants(index.ChannelEmail, "b@example.com").Contains("u") {
		t.Fatalf("expected u to claim new value")
	}
	if v, _ := idx.Claim(index.ChannelEmail, "u"); v != "b@example.com" {
		t.Fatalf("expected forward b@example.com, got %q", v)
	}
	if stats := idx.Stats(); stats.Email.Values != 1 {
		t.Fatalf("expected the emptied value to be dropped, got %d values", stats.Email.Values)
	}
}

func TestConsume_ClearingFieldReleasesClaim(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u", "1234", "a@example.com"))

	res := idx.Consume(profile("u", "not a number", "  "))
	if res.Email != index.TransitionReleased || res.Mobile != index.TransitionReleased {
		t.Fatalf("expected released/released, got %v/%v", res.Email, res.Mobile)
	}
	if _, ok := idx.Claim(index.ChannelEmail, "u"); ok {
		t.Fatalf("expected no email claim")
	}
	if _, ok := idx.Claim(index.ChannelMobile, "u"); ok {
		t.Fatalf("expected no mobile claim")
	}
	if idx.Claimants(index.ChannelMobile, "+1234").Len() != 0 {
		t.Fatalf("expected mobile value to be free")
	}
}

func TestConsume_AbsentStaysAbsent(t *testing.T) {
	idx := newIndex()
	res := idx.Consume(profile("u", "", ""))
	if res.Email != index.TransitionNone || res.Mobile != index.TransitionNone {
		t.Fatalf("expected none/none, got %v/%v", res.Email, res.Mobile)
	}
}

func TestConsume_NilAndAnonymousAreIgnored(t *testing.T) {
	idx := newIndex()
	idx.Consume(nil)
	idx.Consume(profile("", "1234", "a@b"))
	idx.Remove(nil)

	if stats := idx.Stats(); stats != (index.Stats{}) {
		t.Fatalf("expected empty index, got %+v", stats)
	}
}

func TestConsumeAll_SkipsNilAndKeepsOrder(t *testing.T) {
	idx := newIndex()

	results := idx.ConsumeAll([]*entity.ContactProfile{
		profile("u", "", "first@example.com"),
		nil,
		profile("u", "", "second@example.com"),
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Email != index.TransitionMoved {
		t.Fatalf("expected the later profile to win, got %v", results[1].Email)
	}
	if v, _ := idx.Claim(index.ChannelEmail, "u"); v != "second@example.com" {
		t.Fatalf("expected second@example.com, got %q", v)
	}

	if got := idx.ConsumeAll(nil); len(got) != 0 {
		t.Fatalf("expected no results for nil list, got %d", len(got))
	}
}

func TestRemove_FreesEveryClaim(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u1", "1233", "foo@bar"))
	idx.Consume(profile("u2", "1233", "other@bar"))

	// The profile passed to Remove may be stale; only the user id matters.
	res := idx.Remove(profile("u1", "", "stale@bar"))
	if res.Email != index.TransitionReleased || res.Mobile != index.TransitionReleased {
		t.Fatalf("expected released/released, got %v/%v", res.Email, res.Mobile)
	}

	if idx.Claimants(index.ChannelEmail, "foo@bar").Len() != 0 {
		t.Fatalf("expected foo@bar to be free")
	}
	if got := idx.Claimants(index.ChannelMobile, "+1233").IDs(); !reflect.DeepEqual(got, []string{"u2"}) {
		t.Fatalf("expected only u2 on mobile, got %v", got)
	}

	if res := idx.Remove(profile("u1", "", "")); res.Email != index.TransitionNone {
		t.Fatalf("expected second remove to be a no-op, got %v", res.Email)
	}
}

func TestReset_ClearsAllChannels(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u1", "1", "a@b"))
	idx.Consume(profile("u2", "2", "c@d"))

	idx.Reset()

	if stats := idx.Stats(); stats != (index.Stats{}) {
		t.Fatalf("expected empty index, got %+v", stats)
	}
	if res := idx.Consume(profile("u1", "1", "a@b")); res.Email != index.TransitionClaimed {
		t.Fatalf("expected fresh claim after reset, got %v", res.Email)
	}
}

func TestRebuild_ReplacesState(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("gone", "9", "gone@example.com"))

	applied := idx.Rebuild([]*entity.ContactProfile{
		profile("u1", "1", "a@example.com"),
		nil,
		profile("u2", "1", "b@example.com"),
	})
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}
	if _, ok := idx.Claim(index.ChannelEmail, "gone"); ok {
		t.Fatalf("expected stale user to be dropped")
	}
	if got := idx.Claimants(index.ChannelMobile, "+1").IDs(); !reflect.DeepEqual(got, []string{"u1", "u2"}) {
		t.Fatalf("expected [u1 u2], got %v", got)
	}
}

func TestClaimants_SnapshotIsStable(t *testing.T) {
	idx := newIndex()
	idx.Consume(profile("u1", "", "shared@example.com"))

	snapshot := idx.Claimants(index.ChannelEmail, "shared@example.com")
	idx.Consume(profile("u2", "", "shared@example.com"))
	idx.Remove(profile("u1", "", ""))

	if snapshot.Len() != 1 || !snapshot.Contains("u1") {
		t.Fatalf("expected snapshot to keep [u1], got %v", snapshot.IDs())
	}
	if got := idx.Claimants(index.ChannelEmail, "shared@example.com").IDs(); !reflect.DeepEqual(got, []string{"u2"}) {
		t.Fatalf("expected live set [u2], got %v", got)
	}
}

func TestConflictsAndStats(t *testing.T) {
	idx := newIndex()
	idx.ConsumeAll([]*entity.ContactProfile{
		profile("uuid1", "1234", "foo1@bar"),
		profile("uuid2", "1233", "foo@bar"),
		profile("uuid3", "171789987", "foo@baz"),
		profile("uuid4", "171789987", "foo@bazl"),
		profile("uuid5", "", "FOO1@BAR"),
	})

	emailConflicts := idx.Conflicts(index.ChannelEmail)
	want := []index.Conflict{{Value: "foo1@bar", UserIDs: []string{"uuid1", "uuid5"}}}
	if !reflect.DeepEqual(emailConflicts, want) {
		t.Fatalf("expected %v, got %v", want, emailConflicts)
	}

	mobileConflicts := idx.Conflicts(index.ChannelMobile)
	if len(mobileConflicts) != 1 || mobileConflicts[0].Value != "+171789987" {
		t.Fatalf("unexpected mobile conflicts %v", mobileConflicts)
	}

	stats := idx.Stats()
	if stats.Email.Claims != 5 || stats.Email.Values != 4 || stats.Email.Conflicts != 1 {
		t.Fatalf("unexpected email stats %+v", stats.Email)
	}
	if stats.Mobile.Claims != 4 || stats.Mobile.Values != 3 || stats.Mobile.Conflicts != 1 {
		t.Fatalf("unexpected mobile stats %+v", stats.Mobile)
	}
}

func TestParseChannel(t *testing.T) {
	if ch, err := index.ParseChannel(" EMAIL "); err != nil || ch != index.ChannelEmail {
		t.Fatalf("expected email, got %v (%v)", ch, err)
	}
	if ch, err := index.ParseChannel("mobile"); err != nil || ch != index.ChannelMobile {
		t.Fatalf("expected mobile, got %v (%v)", ch, err)
	}
	if _, err := index.ParseChannel("fax"); err == nil {
		t.Fatalf("expected error for unknown channel")
	}
}
