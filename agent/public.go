package agent

import (
	"context"
	"errors"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/docs"
	"github.com/etnz/rebalance/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	e := NewExpert("Facilitator", "")
	e.Config = &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{FunctionDeclarations: NewDeclaration(experts)},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and of answering the user's questions
			about a purchase plan that rebalances their portfolio.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			Always check the plan with the Analyst before answering: the figures it gives are authoritative,
			never compute your own. Answer in plain language, short paragraphs, no jargon about solvers.
		`}}},
	}
	e.Library = NewLibrary(experts)
	return e
}

// NewResearcher returns an expert that searches the web about funds.
func NewResearcher() *Expert {
	e := NewExpert("Researcher", `This is an expert of financial products.
		Very well aware of funds, ETFs and their underlying markets.
		Ask the Researcher whenever you need recent or grounding information about a fund.`)
	e.Config = &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in financial products, you can search and find about anything related to
			funds, ETFs and markets. You leverage Google Search to ground your assertions in a solid truth.
			Never give investment advice.
		`}}},
	}
	return e
}

// NewAnalyst returns an expert that knows the portfolio, its plan and how
// plans are computed. When planning failed, plan is nil and planErr tells why.
func NewAnalyst(p rebalance.Portfolio, plan *rebalance.Plan, planErr error) *Expert {
	lib := AnalystFunctions(p, plan, planErr)
	e := NewExpert("Analyst", `This is the Analyst. It knows the user's portfolio, the purchase plan computed for it,
		and how the plan is computed. Ask it about any figure of the plan.`)
	e.Config = &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{FunctionDeclarations: NewDeclaration(lib)},
		},
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are the analyst of the user's portfolio. Use the Tools to read the portfolio, the purchase plan
			and the documentation of the optimization model. Explain deviations between the new proportions
			and the targets with the figures you read, and why whole shares and the strict budget cause them.
			When the Plan tool reports an error, its kind tells whether the portfolio is invalid or no plan
			fits the budget: explain that failure instead.
		`}}},
	}
	e.Library = NewLibrary(lib)
	return e
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// document returns a Function without parameters returning a markdown document.
func document(name, description string, render func() (string, error)) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        name,
			Description: description,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown document.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			out, err := render()
			if err != nil {
				return errorResponse(id, &CallError{Function: name, Err: err})
			}
			return outputResponse(id, name, out)
		},
	}
}

// AnalystFunctions returns the tools of the Analyst. The Plan tool reports
// planErr when there is no plan.
func AnalystFunctions(p rebalance.Portfolio, plan *rebalance.Plan, planErr error) []Function {
	return []Function{
		document("Portfolio",
			"Portfolio returns the current holdings, prices, proportions and target proportions of every fund, and the budget.",
			func() (string, error) { return renderer.PortfolioMarkdown(p), nil }),
		document("Plan",
			"Plan returns the purchase plan: shares and amount to buy per fund, the resulting proportions and the totals.",
			func() (string, error) {
				if plan == nil && planErr != nil {
					return "", planErr
				}
				if plan == nil {
					return "", errors.New("the plan was not computed")
				}
				return renderer.PlanMarkdown(plan), nil
			}),
		document("Model",
			"Model returns the documentation of how the purchase plan is computed.",
			func() (string, error) { return docs.GetTopic("model") }),
	}
}
