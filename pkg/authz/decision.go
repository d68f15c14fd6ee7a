package authz

// Decision is the tri-state outcome of an authorization check
type Decision int

const (
	// Allow grants the operation
	Allow Decision = iota
	// NotFound denies because the target entity does not exist
	NotFound
	// Forbidden denies because the entity exists but the caller fails the
	// visibility, ownership, or authorship predicate
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Operation is the intent being authorized
type Operation string

const (
	OpRead          Operation = "read"
	OpCreate        Operation = "create"
	OpUpdate        Operation = "update"
	OpDelete        Operation = "delete"
	OpManageMembers Operation = "manage_members"
)

// Facts are the resolved inputs to a rule: whether the entity exists and how
// the requesting user relates to it. Resolution happens in the Checker;
// rules never touch storage.
type Facts struct {
	Exists   bool
	IsOwner  bool
	IsMember bool
	IsAuthor bool // meaningful for comments only
}

// DecideBoard evaluates board rules. Reads are open to the owner and
// members; updates, deletion, and membership management are owner-only.
func DecideBoard(op Operation, f Facts) Decision {
	if !f.Exists {
		return NotFound
	}
	switch op {
	case OpRead:
		if f.IsOwner || f.IsMember {
			return Allow
		}
	case OpUpdate, OpDelete, OpManageMembers:
		if f.IsOwner {
			return Allow
		}
	}
	return Forbidden
}

// DecideTask evaluates task rules. The task model grants any owner or member
// of the parent board full read and mutation rights; there are no task-level
// fine-grained permissions.
func DecideTask(op Operation, f Facts) Decision {
	if !f.Exists {
		return NotFound
	}
	switch op {
	case OpRead, OpCreate, OpUpdate, OpDelete:
		if f.IsOwner || f.IsMember {
			return Allow
		}
	}
	return Forbidden
}

// DecideComment evaluates comment rules. Reading and creating follow the
// parent board's visibility; deletion is reserved for the author regardless
// of board role.
func DecideComment(op Operation, f Facts) Decision {
	if !f.Exists {
		return NotFound
	}
	switch op {
	case OpRead, OpCreate:
		if f.IsOwner || f.IsMember {
			return Allow
		}
	case OpDelete:
		if f.IsAuthor {
			return Allow
		}
	}
	return Forbidden
}
