// Package authz evaluates a single declarative permission table instead of
// scattering per-model policy checks.
package authz

// Effect is the outcome a rule contributes.
type Effect string

const (
	Allow Effect = "allow"
	Deny  Effect = "deny"
)

// Wildcard matches any action or resource in a rule.
const Wildcard = "*"

// Rule maps (role or permission, action, resource) to an effect. A rule
// names either a role or a permission, not both.
type Rule struct {
	Role       string
	Permission string
	Action     string
	Resource   string
	Effect     Effect
}

// Subject is whoever is asking: their roles and granted permissions.
type Subject struct {
	Roles       []string
	Permissions []string
}

// Table is an ordered rule set with deny precedence and default deny.
type Table struct {
	rules []Rule
}

func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// Allows evaluates the table for the subject. An explicit deny beats any
// allow; no matching rule means deny.
func (t *Table) Allows(sub Subject, action, resource string) bool {
	allowed := false
	for _, r := range t.rules {
		if !r.matches(sub, action, resource) {
			continue
		}
		if r.Effect == Deny {
			return false
		}
		allowed = true
	}
	return allowed
}

func (r Rule) matches(sub Subject, action, resource string) bool {
	if r.Action != Wildcard && r.Action != action {
		return false
	}
	if r.Resource != Wildcard && r.Resource != resource {
		return false
	}
	if r.Role != "" {
		return contains(sub.Roles, r.Role)
	}
	if r.Permission != "" {
		return contains(sub.Permissions, r.Permission)
	}
	return false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// Low-stock alert vocabulary.
const (
	ActionReceive         = "receive"
	ResourceLowStockAlert = "low_stock_alert"
)

// LowStockAlertTable builds the table that gates alert delivery from the
// configured eligible role and permission sets.
func LowStockAlertTable(roles, permissions []string) *Table {
	rules := make([]Rule, 0, len(roles)+len(permissions))
	for _, role := range roles {
		rules = append(rules, Rule{
			Role:     role,
			Action:   ActionReceive,
			Resource: ResourceLowStockAlert,
			Effect:   Allow,
		})
	}
	for _, perm := range permissions {
		rules = append(rules, Rule{
			Permission: perm,
			Action:     ActionReceive,
			Resource:   ResourceLowStockAlert,
			Effect:     Allow,
		})
	}
	return NewTable(rules)
}
