package sim

import (
	"fmt"
	"strings"
)

// AdmissionPolicy decides whether a learner command may run in a session.
// Rejected commands never reach a simulator and leave the session untouched.
type AdmissionPolicy interface {
	Admit(action string) (admitted bool, reason string)
}

// AlwaysAdmit admits all commands unconditionally.
type AlwaysAdmit struct{}

func (a *AlwaysAdmit) Admit(_ string) (bool, string) {
	return true, ""
}

// AllowList admits only the commands a challenge lists. A listed alias admits
// every spelling of the same canonical action.
type AllowList struct {
	domain    Domain
	raw       map[string]bool
	canonical map[Action]bool
	names     []string
}

// NewAllowList creates an allow list for the domain.
// Panics if commands is empty: an empty list means "no restriction" and
// should use AlwaysAdmit instead.
func NewAllowList(domain Domain, commands []string) *AllowList {
	if len(commands) == 0 {
		panic("AllowList: commands must not be empty")
	}
	al := &AllowList{
		domain:    domain,
		raw:       make(map[string]bool, len(commands)),
		canonical: make(map[Action]bool, len(commands)),
	}
	for _, c := range commands {
		name := NormalizeActionName(c)
		al.raw[name] = true
		al.names = append(al.names, name)
		if a, ok := ResolveAction(domain, name); ok {
			al.canonical[a] = true
		}
	}
	return al
}

// Admit checks the command against the list.
func (al *AllowList) Admit(action string) (bool, string) {
	name := NormalizeActionName(action)
	if al.raw[name] {
		return true, ""
	}
	if a, ok := ResolveAction(al.domain, name); ok && al.canonical[a] {
		return true, ""
	}
	return false, fmt.Sprintf("'%s' is not one of [%s]", name, strings.Join(al.names, ", "))
}

// NewAdmissionPolicy returns AlwaysAdmit when allowed is empty and an
// AllowList otherwise.
func NewAdmissionPolicy(domain Domain, allowed []string) AdmissionPolicy {
	if len(allowed) == 0 {
		return &AlwaysAdmit{}
	}
	return NewAllowList(domain, allowed)
}
