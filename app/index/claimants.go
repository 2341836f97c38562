package index

import "sort"

// Claimants is an immutable snapshot of the users claiming one canonical
// value. Mutations on the index build a new set and swap it in, so a
// Claimants value handed to a reader never changes underneath it.
type Claimants struct {
	ids map[string]struct{}
}

func (c Claimants) Len() int {
	return len(c.ids)
}

func (c Claimants) Contains(userID string) bool {
	_, ok := c.ids[userID]
	return ok
}

// IDs returns the claiming user ids in ascending order.
func (c Claimants) IDs() []string {
	ids := make([]string, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c Claimants) with(userID string) Claimants {
	if c.Contains(userID) {
		return c
	}

	ids := make(map[string]struct{}, len(c.ids)+1)
	for id := range c.ids {
		ids[id] = struct{}{}
	}
	ids[userID] = struct{}{}
	return Claimants{ids: ids}
}

func (c Claimants) without(userID string) Claimants {
	if !c.Contains(userID) {
		return c
	}

	ids := make(map[string]struct{}, len(c.ids))
	for id := range c.ids {
		if id != userID {
			ids[id] = struct{}{}
		}
	}
	return Claimants{ids: ids}
}
