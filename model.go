package rebalance

import (
	"math/big"

	"github.com/etnz/rebalance/solver"
)

// UnderspendWeight scales the unspent budget in the objective, relative to
// the deviation of each fund from its target.
var UnderspendWeight = big.NewRat(1, 1)

// Model is the integer program for one portfolio. It is scoped to a single
// solve: BuildModel always starts from a fresh solver.Problem.
type Model struct {
	Problem *solver.Problem
	// Shares holds the shares to buy of each fund, in fund order.
	Shares []solver.Var

	TotalBought   solver.Expr // Σ shares to buy × price
	TotalExisting solver.Expr // Σ shares held × price
	NewTotal      solver.Expr // TotalBought + TotalExisting
	// Deviations holds |new value − NewTotal × target| for each fund.
	Deviations []solver.Expr
	Underspend solver.Expr // (target buy − TotalBought) × UnderspendWeight
	Objective  solver.Expr
}

// BuildModel encodes a validated portfolio. Every real input is quantized.
//
// Variables are named after fund symbols and declared in fund order.
// Constraints are: each variable is a non negative integer and the total
// bought is strictly less than the budget. The objective is the sum of the
// deviations plus the underspend.
func BuildModel(p Portfolio) *Model {
	pb := solver.NewProblem()
	m := &Model{Problem: pb}

	prices := make([]*big.Rat, len(p.Funds))
	var bought, existing []solver.Expr
	for i, f := range p.Funds {
		prices[i] = Quantize(f.Price)
		x := pb.Int(f.Symbol)
		pb.Assert(x.Expr().Ge(solver.Const(0)))
		m.Shares = append(m.Shares, x)

		bought = append(bought, x.Expr().Mul(prices[i]))
		held := new(big.Rat).Mul(Quantize(f.Shares), prices[i])
		existing = append(existing, solver.Rat(held))
	}
	m.TotalBought = solver.Sum(bought...)
	m.TotalExisting = solver.Sum(existing...)
	m.NewTotal = m.TotalBought.Add(m.TotalExisting)

	for i, f := range p.Funds {
		value := m.Shares[i].Expr().Add(solver.Rat(Quantize(f.Shares))).Mul(prices[i])
		ideal := m.NewTotal.Mul(Quantize(f.TargetProportion))
		m.Deviations = append(m.Deviations, abs(value.Sub(ideal)))
	}

	budget := solver.Rat(Quantize(p.TargetBuy))
	pb.Assert(m.TotalBought.Lt(budget))
	m.Underspend = budget.Sub(m.TotalBought).Mul(UnderspendWeight)

	m.Objective = solver.Sum(append(append([]solver.Expr(nil), m.Deviations...), m.Underspend)...)
	pb.Minimize(m.Objective)
	return m
}

// abs is |e| written as a conditional: linear on each branch.
func abs(e solver.Expr) solver.Expr {
	return solver.Ite(e.Lt(solver.Const(0)), e.Neg(), e)
}
