package nodes

import (
	"context"
	"fmt"
	"strings"

	"claude-nodes/internal/provider"
)

var refinementStrategies = map[string]string{
	"clarify":         "Make this clearer and more understandable while maintaining accuracy:",
	"expand":          "Expand this with more relevant details and examples:",
	"focus":           "Make this more focused and concise while keeping key information:",
	"restructure":     "Reorganize this for better flow and logical structure:",
	"enhance_quality": "Enhance the overall quality considering: ",
}

// IterativeRefine runs up to three refinement passes over a text, feeding
// each result into the next iteration's prompt.
type IterativeRefine struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewIterativeRefine(p provider.Provider, d Defaults) *IterativeRefine {
	return &IterativeRefine{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Iterative Refine",
			Category: "Claude/Advanced",
			Inputs: []InputSpec{
				{Name: "initial_result", Kind: KindString, Required: true, Multiline: true},
				{Name: "refinement_strategy", Kind: KindChoice, Default: "enhance_quality", Choices: []string{
					"clarify", "expand", "focus", "restructure", "enhance_quality",
				}},
				{Name: "refinement_instructions", Kind: KindString, Multiline: true,
					Default: "Improve this description by adding more specific details and technical accuracy."},
				{Name: "iteration_count", Kind: KindInt, Default: 1, Min: 1, Max: 3},
				{Name: "preserve_structure", Kind: KindBoolean, Default: true},
				{Name: "accumulate_improvements", Kind: KindBoolean, Default: true},
				{Name: "optimize_for", Kind: KindString, Default: "clarity, detail, accuracy, readability"},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"refined_result", "improvement_notes"},
		},
	}
}

func (n *IterativeRefine) Spec() Spec { return n.spec }

func (n *IterativeRefine) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	initialResult := a.String("initial_result")
	strategy := a.String("refinement_strategy")
	instructions := a.String("refinement_instructions")
	iterations := a.Int("iteration_count")
	preserveStructure := a.Bool("preserve_structure")
	accumulate := a.Bool("accumulate_improvements")
	optimizeFor := a.String("optimize_for")
	if err := a.Err(); err != nil {
		return nil, err
	}

	structureHint := "Feel free to restructure as needed."
	if preserveStructure {
		structureHint = "Preserve the original structure and format."
	}
	accumulateHint := "Fresh perspective each iteration."
	if accumulate {
		accumulateHint = "Build upon previous improvements."
	}

	systemPrompt := fmt.Sprintf(`You are a meticulous editor focused on iterative improvement.
Optimization targets: %s
%s
%s
`, optimizeFor, structureHint, accumulateHint)

	strategyText := refinementStrategies[strategy]
	if strategy == "enhance_quality" {
		strategyText += optimizeFor
	}

	currentResult := initialResult
	improvements := make([]string, 0, iterations)

	for i := 0; i < iterations; i++ {
		iterationPrompt := fmt.Sprintf(`Iteration %d of %d

%s

Current version:
%s

Specific instructions: %s

Provide the improved version:`, i+1, iterations, strategyText, currentResult, instructions)

		refined, err := complete(ctx, n.provider, n.defaults, a, iterationPrompt, systemPrompt, nil)
		if err != nil {
			return nil, err
		}
		currentResult = refined

		improvements = append(improvements, fmt.Sprintf("Iteration %d: Applied %s strategy", i+1, strategy))
	}

	return Outputs{
		"refined_result":    currentResult,
		"improvement_notes": strings.Join(improvements, "\n"),
	}, nil
}
