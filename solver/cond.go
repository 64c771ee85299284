package solver

// Relation is a comparison operator between two expressions.
type Relation int

const (
	Lt Relation = iota // <
	Le                 // <=
	Eq                 // ==
	Ge                 // >=
	Gt                 // >
)

func (r Relation) String() string {
	switch r {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Eq:
		return "=="
	case Ge:
		return ">="
	case Gt:
		return ">"
	}
	return "?"
}

// Cond is the comparison Left Rel Right.
type Cond struct {
	Rel         Relation
	Left, Right Expr
}

func (e Expr) Lt(o Expr) Cond { return Cond{Lt, e, o} }
func (e Expr) Le(o Expr) Cond { return Cond{Le, e, o} }
func (e Expr) Eq(o Expr) Cond { return Cond{Eq, e, o} }
func (e Expr) Ge(o Expr) Cond { return Cond{Ge, e, o} }
func (e Expr) Gt(o Expr) Cond { return Cond{Gt, e, o} }

func (c Cond) String() string {
	return c.Left.String() + " " + c.Rel.String() + " " + c.Right.String()
}
