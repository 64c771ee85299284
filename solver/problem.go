package solver

import "fmt"

// Kind is the domain of a variable.
type Kind int

const (
	Integer  Kind = iota // an integer unknown
	Rational             // an exact rational unknown
)

func (k Kind) String() string {
	if k == Integer {
		return "int"
	}
	return "rat"
}

// Var is a variable declared in a Problem. It is only meaningful for the
// Problem that declared it.
type Var struct {
	id   int
	name string
	kind Kind
}

func (v Var) ID() int        { return v.id }
func (v Var) Name() string   { return v.name }
func (v Var) Kind() Kind     { return v.kind }
func (v Var) String() string { return v.name }

// Expr returns the expression made of v alone.
func (v Var) Expr() Expr { return Expr{&node{op: OpVar, v: v}} }

// Problem holds the variables, constraints and objective of a single solve.
//
// A Problem is an arena: variables are created by it and die with it, so two
// solves never share state. It is not safe for concurrent use.
type Problem struct {
	vars        []Var
	byName      map[string]int
	constraints []Cond
	objective   Expr
}

// NewProblem returns an empty problem: no variables, no constraints and a
// constant 0 objective.
func NewProblem() *Problem {
	return &Problem{byName: make(map[string]int)}
}

// Int declares an integer variable, or returns the one already declared
// with that name.
func (p *Problem) Int(name string) Var { return p.declare(name, Integer) }

// Real declares a rational variable, or returns the one already declared
// with that name.
func (p *Problem) Real(name string) Var { return p.declare(name, Rational) }

func (p *Problem) declare(name string, kind Kind) Var {
	if i, exists := p.byName[name]; exists {
		v := p.vars[i]
		if v.kind != kind {
			panic(fmt.Sprintf("solver: variable %q redeclared as %v, was %v", name, kind, v.kind))
		}
		return v
	}
	v := Var{id: len(p.vars), name: name, kind: kind}
	p.vars = append(p.vars, v)
	p.byName[name] = v.id
	return v
}

// Lookup returns the variable declared with that name.
func (p *Problem) Lookup(name string) (Var, bool) {
	i, exists := p.byName[name]
	if !exists {
		return Var{}, false
	}
	return p.vars[i], true
}

// Vars returns the declared variables in declaration order.
func (p *Problem) Vars() []Var {
	vars := make([]Var, len(p.vars))
	copy(vars, p.vars)
	return vars
}

// Assert adds hard constraints.
func (p *Problem) Assert(cs ...Cond) { p.constraints = append(p.constraints, cs...) }

// Constraints returns the asserted constraints in assertion order.
func (p *Problem) Constraints() []Cond {
	cs := make([]Cond, len(p.constraints))
	copy(cs, p.constraints)
	return cs
}

// Minimize sets the objective to minimize, replacing any previous one.
func (p *Problem) Minimize(e Expr) { p.objective = e }

// Objective returns the objective to minimize.
func (p *Problem) Objective() Expr { return p.objective }
