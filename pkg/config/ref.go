package config

// RefKind distinguishes the three ways a dependency can pin a revision.
type RefKind int

const (
	RefTag RefKind = iota
	RefRev
	RefBranch
)

func (k RefKind) String() string {
	switch k {
	case RefTag:
		return "tag"
	case RefRev:
		return "rev"
	case RefBranch:
		return "branch"
	default:
		return "unknown"
	}
}

// Ref is a point in a repository's history. It is exactly one of Tag, Rev or
// Branch; consumers switch on the concrete type.
type Ref interface {
	Kind() RefKind
	String() string
	isRef()
}

// Tag is a tag name. Annotated tags are peeled to their commit.
type Tag string

// Rev is a full or abbreviated commit hash.
type Rev string

// Branch is a branch name on the remote. Branch pins are not reproducible;
// the lockfile records the commit they resolved to.
type Branch string

func (Tag) Kind() RefKind    { return RefTag }
func (Rev) Kind() RefKind    { return RefRev }
func (Branch) Kind() RefKind { return RefBranch }

func (t Tag) String() string    { return string(t) }
func (r Rev) String() string    { return string(r) }
func (b Branch) String() string { return string(b) }

func (Tag) isRef()    {}
func (Rev) isRef()    {}
func (Branch) isRef() {}
