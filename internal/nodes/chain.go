package nodes

import (
	"context"
	"fmt"
	"strings"

	"claude-nodes/internal/provider"
)

// PromptChain chains up to three prompts, accumulating each step's result
// into the next step's context, then combines the steps into a final output.
type PromptChain struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewPromptChain(p provider.Provider, d Defaults) *PromptChain {
	return &PromptChain{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Prompt Chain",
			Category: "Claude/Advanced",
			Inputs: []InputSpec{
				{Name: "input_text", Kind: KindString, Multiline: true, Default: ""},
				{Name: "input_image", Kind: KindImage},
				{Name: "step1_prompt", Kind: KindString, Multiline: true, Default: "First, analyze the main subjects"},
				{Name: "step1_use_image", Kind: KindBoolean, Default: true},
				{Name: "step2_prompt", Kind: KindString, Multiline: true, Default: "Next, describe the context and environment"},
				{Name: "step2_use_previous", Kind: KindBoolean, Default: true},
				{Name: "step3_prompt", Kind: KindString, Multiline: true, Default: "Finally, synthesize insights"},
				{Name: "step3_use_all", Kind: KindBoolean, Default: true},
				{Name: "combination_mode", Kind: KindChoice, Default: "synthesize", Choices: []string{
					"append", "synthesize", "extract_key_points", "structured_merge",
				}},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"final_output", "intermediate_results"},
		},
	}
}

func (n *PromptChain) Spec() Spec { return n.spec }

func (n *PromptChain) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	inputText := a.String("input_text")
	tensor, hasImage := a.Image("input_image")
	step1Prompt := a.String("step1_prompt")
	step1UseImage := a.Bool("step1_use_image")
	step2Prompt := a.String("step2_prompt")
	step2UsePrevious := a.Bool("step2_use_previous")
	step3Prompt := a.String("step3_prompt")
	step3UseAll := a.Bool("step3_use_all")
	combinationMode := a.String("combination_mode")
	if err := a.Err(); err != nil {
		return nil, err
	}

	var results []string

	// Step 1
	var result1 string
	var err error
	if step1UseImage && hasImage {
		prompt := step1Prompt
		if inputText != "" {
			prompt += "\nContext: " + inputText
		}
		images, encErr := encodeImages(tensor)
		if encErr != nil {
			return nil, encErr
		}
		result1, err = complete(ctx, n.provider, n.defaults, a, prompt,
			"You are performing step 1 of a multi-step analysis.", images)
	} else {
		prompt := step1Prompt
		if inputText != "" {
			prompt += "\nInput: " + inputText
		}
		result1, err = complete(ctx, n.provider, n.defaults, a, prompt,
			"You are performing step 1 of a multi-step analysis.", nil)
	}
	if err != nil {
		return nil, err
	}
	results = append(results, "Step 1: "+result1)

	// Step 2
	var result2 string
	if step2Prompt != "" {
		context2 := inputText
		if step2UsePrevious {
			context2 = result1
		}
		result2, err = complete(ctx, n.provider, n.defaults, a,
			step2Prompt+"\nPrevious analysis: "+context2,
			"You are performing step 2 of a multi-step analysis.", nil)
		if err != nil {
			return nil, err
		}
		results = append(results, "Step 2: "+result2)
	}

	// Step 3
	if step3Prompt != "" && step3UseAll {
		allContext := fmt.Sprintf("Initial input: %s\nStep 1 result: %s\nStep 2 result: %s",
			inputText, result1, result2)
		result3, err := complete(ctx, n.provider, n.defaults, a,
			step3Prompt+"\nAll previous analysis: "+allContext,
			"You are performing the final synthesis step.", nil)
		if err != nil {
			return nil, err
		}
		results = append(results, "Step 3: "+result3)
	}

	// Combine results based on mode
	var final string
	switch combinationMode {
	case "append":
		final = strings.Join(results, "\n\n")
	case "synthesize":
		final, err = complete(ctx, n.provider, n.defaults, a,
			"Synthesize these analysis steps into a coherent whole:\n"+strings.Join(results, "\n"),
			"Create a unified analysis from multiple perspectives.", nil)
		if err != nil {
			return nil, err
		}
	case "extract_key_points":
		final, err = complete(ctx, n.provider, n.defaults, a,
			"Extract the key points from this analysis:\n"+strings.Join(results, "\n"),
			"Extract and organize the most important insights.", nil)
		if err != nil {
			return nil, err
		}
	default: // structured_merge
		headed := make([]string, 0, len(results))
		for _, r := range results {
			headed = append(headed, "## "+r)
		}
		final = "# Analysis Results\n\n" + strings.Join(headed, "\n\n")
	}

	return Outputs{
		"final_output":         final,
		"intermediate_results": strings.Join(results, "\n---\n"),
	}, nil
}
