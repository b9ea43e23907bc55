package core

// Scope selects whose records an operation covers. The zero value covers every owner.
type Scope struct {
	OwnerID string
}

func AllOwners() Scope { return Scope{} }

func OwnerScope(ownerID string) Scope { return Scope{OwnerID: ownerID} }

func (s Scope) All() bool { return s.OwnerID == "" }

// Key identifies the scope for deduplicating concurrent work.
func (s Scope) Key() string {
	if s.All() {
		return "all"
	}
	return "owner:" + s.OwnerID
}
