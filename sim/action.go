package sim

import (
	"fmt"
	"slices"
	"strings"
)

// Domain selects which simulator backs a session.
type Domain string

const (
	DomainOS   Domain = "OS"
	DomainDBMS Domain = "DBMS"
)

// ParseDomain accepts a domain tag case-insensitively.
// Unknown tags are structural errors.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToUpper(strings.TrimSpace(s))) {
	case DomainOS:
		return DomainOS, nil
	case DomainDBMS:
		return DomainDBMS, nil
	default:
		return "", malformed("domain", "unknown domain %q", s)
	}
}

// Action is a canonical learner command.
type Action string

const (
	ActionAllocate          Action = "allocate"
	ActionFree              Action = "free"
	ActionCompact           Action = "compact"
	ActionAnalyze           Action = "analyze"
	ActionInsert            Action = "insert"
	ActionDelete            Action = "delete"
	ActionQueryWithIndex    Action = "query_with_index"
	ActionQueryWithoutIndex Action = "query_without_index"
	ActionRangeQuery        Action = "range_query"
	ActionCreateIndex       Action = "create_index"
)

// actionAliases maps every accepted spelling to its canonical action, per domain.
var actionAliases = map[Domain]map[string]Action{
	DomainOS: {
		"alloc":      ActionAllocate,
		"allocate":   ActionAllocate,
		"free":       ActionFree,
		"dealloc":    ActionFree,
		"deallocate": ActionFree,
		"compact":    ActionCompact,
		"analyze":    ActionAnalyze,
	},
	DomainDBMS: {
		"insert":              ActionInsert,
		"delete":              ActionDelete,
		"query":               ActionQueryWithIndex,
		"query_with_index":    ActionQueryWithIndex,
		"query_without_index": ActionQueryWithoutIndex,
		"range_query":         ActionRangeQuery,
		"create_index":        ActionCreateIndex,
		"analyze":             ActionAnalyze,
	},
}

// NormalizeActionName lower-cases and trims a raw command name.
func NormalizeActionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveAction maps a raw command name to its canonical action for the domain.
func ResolveAction(domain Domain, name string) (Action, bool) {
	a, ok := actionAliases[domain][NormalizeActionName(name)]
	return a, ok
}

// ActionNames returns the accepted spellings for a domain, for help output.
func ActionNames(domain Domain) []string {
	names := make([]string, 0, len(actionAliases[domain]))
	for name := range actionAliases[domain] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func unknownAction(domain Domain, name string) *ActionError {
	return newActionError(FailureUnknownAction, "Unknown %s action '%s'", domain, NormalizeActionName(name))
}

// Params carries the loosely typed parameters of a learner command, as
// decoded from JSON or YAML.
type Params map[string]any

// Int returns the named parameter as an integer. ok is false when absent.
func (p Params) Int(name string) (v int64, ok bool, err error) {
	raw, present := p[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch x := raw.(type) {
	case int:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case int32:
		return int64(x), true, nil
	case uint64:
		return int64(x), true, nil
	case float64:
		return int64(x), true, nil
	case float32:
		return int64(x), true, nil
	case string:
		var n int64
		if _, err := fmt.Sscan(x, &n); err != nil {
			return 0, true, newActionError(FailureInvalidParameter, "Parameter '%s' must be an integer", name)
		}
		return n, true, nil
	default:
		return 0, true, newActionError(FailureInvalidParameter, "Parameter '%s' must be an integer", name)
	}
}

// Float returns the named parameter as a float, or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	raw, present := p[name]
	if !present || raw == nil {
		return def, nil
	}
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		var f float64
		if _, err := fmt.Sscan(x, &f); err != nil {
			return 0, newActionError(FailureInvalidParameter, "Parameter '%s' must be a number", name)
		}
		return f, nil
	default:
		return 0, newActionError(FailureInvalidParameter, "Parameter '%s' must be a number", name)
	}
}

// Bool returns the named parameter as a bool, or def when absent.
func (p Params) Bool(name string, def bool) bool {
	switch x := p[name].(type) {
	case bool:
		return x
	case string:
		s := strings.ToLower(x)
		return s == "true" || s == "1" || s == "yes"
	case int:
		return x != 0
	case float64:
		return x != 0
	default:
		return def
	}
}

// String returns the named parameter as a string, or def when absent.
func (p Params) String(name, def string) string {
	if s, ok := p[name].(string); ok && s != "" {
		return s
	}
	return def
}

// requireInt fetches a mandatory integer parameter.
func (p Params) requireInt(name string) (int64, error) {
	v, ok, err := p.Int(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newActionError(FailureInvalidParameter, "Missing '%s' parameter", name)
	}
	return v, nil
}
