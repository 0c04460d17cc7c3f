package agent

import "strings"

// AccessList restricts sessions to known ids. An empty list lets everyone in.
type AccessList map[string]struct{}

func NewAccessList(ids ...string) AccessList {
	list := AccessList{}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			list[id] = struct{}{}
		}
	}
	return list
}

func (a AccessList) Allowed(id string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[id]
	return ok
}
