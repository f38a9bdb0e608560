package auth

type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorize decides whether actor may act in one of the allowed roles. An
// anonymous actor (no subject) is always denied.
func Authorize(actor Claims, allowed ...string) Decision {
	if actor.Subject == "" {
		return Deny
	}
	if len(allowed) == 0 || actor.HasRole(allowed...) {
		return Allow
	}
	return Deny
}
