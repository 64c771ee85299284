// Package rebalance computes integer purchase plans that move a portfolio
// toward target allocations without exceeding a spending budget.
//
// A Portfolio lists funds with their current shares, price and target
// proportion. Optimize runs the whole pipeline:
//   - Validate checks the configuration (proportions sum to one, positive
//     prices, unique symbols).
//   - BuildModel encodes it as an integer program: one non negative integer
//     per fund, a strict budget constraint and an objective summing the
//     absolute deviations from the targets plus the unspent budget.
//   - a solver.Backend minimizes the objective.
//   - Extract reads the assignment back into a Plan.
//
// Every real input goes through Quantize before reaching the solver, so
// repeated runs on the same configuration produce the same problem.
//
// Prices can be refreshed beforehand with RefreshPrices from any
// PriceProvider, see the eodhd and yahoo packages.
package rebalance
