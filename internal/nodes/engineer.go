package nodes

import (
	"context"
	"fmt"
	"strings"
)

// Prompt engineering templates, substituted with the node's task, context
// and requirements inputs.
var promptTemplates = map[string]string{
	"qwen_style": `You are a helpful assistant. Please follow these guidelines:
1. Be precise and detailed in your analysis
2. Structure your response clearly
3. Use specific technical terminology when appropriate
4. Maintain objectivity while being comprehensive

Task: {task}
Context: {context}
Requirements: {requirements}`,

	"chain_of_thought": `Let's approach this step-by-step.

First, I need to understand: {task}
Context provided: {context}

Let me think through this systematically:
1. Initial observation
2. Detailed analysis
3. Key insights
4. Final conclusion

{requirements}`,

	"structured_analysis": `Analyze the following according to these dimensions:
- Visual/Content Overview
- Technical Details
- Artistic/Aesthetic Elements
- Contextual Significance
- Potential Applications

Task: {task}
Context: {context}
Additional Requirements: {requirements}`,

	"creative_narrative": `Create an engaging narrative that:
- Captures the essence of the subject
- Uses vivid, descriptive language
- Maintains coherence and flow
- Incorporates subtle details

Task: {task}
Context: {context}
Style Requirements: {requirements}`,

	"technical_documentation": `Generate technical documentation following these standards:
- Use precise terminology
- Include all relevant parameters
- Structure information hierarchically
- Provide clear explanations

Task: {task}
Technical Context: {context}
Documentation Requirements: {requirements}`,
}

var detailInstructions = map[string]string{
	"concise":    "Be brief and to the point. Focus on key information only.",
	"standard":   "Provide a balanced level of detail.",
	"detailed":   "Include comprehensive details and thorough explanations.",
	"exhaustive": "Provide exhaustive detail, leaving nothing unexamined.",
}

// PromptEngineer assembles an engineered prompt and system prompt from
// templates, detail levels, output-format hints and few-shot examples. It
// performs no API call; model and api_key are declared so the host can wire
// them through like on every other node.
type PromptEngineer struct {
	spec Spec
}

func NewPromptEngineer(d Defaults) *PromptEngineer {
	return &PromptEngineer{
		spec: Spec{
			Name:     "Prompt Engineer",
			Category: "Claude/Advanced",
			Inputs: []InputSpec{
				{Name: "base_prompt", Kind: KindString, Multiline: true, Default: "Describe in detail"},
				{Name: "context", Kind: KindString, Multiline: true, Default: ""},
				{Name: "requirements", Kind: KindString, Multiline: true, Default: ""},
				{Name: "template_style", Kind: KindChoice, Default: "none", Choices: []string{
					"none", "qwen_style", "chain_of_thought", "structured_analysis",
					"creative_narrative", "technical_documentation",
				}},
				{Name: "output_format", Kind: KindChoice, Default: "plain", Choices: []string{
					"plain", "markdown", "json", "xml",
				}},
				{Name: "detail_level", Kind: KindChoice, Default: "standard", Choices: []string{
					"concise", "standard", "detailed", "exhaustive",
				}},
				{Name: "example_input", Kind: KindString, Multiline: true, Default: ""},
				{Name: "example_output", Kind: KindString, Multiline: true, Default: ""},
				{Name: "creativity", Kind: KindFloat, Default: 0.7, Min: 0.0, Max: 1.0},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"engineered_prompt", "system_prompt_out"},
		},
	}
}

func (n *PromptEngineer) Spec() Spec { return n.spec }

func (n *PromptEngineer) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	basePrompt := a.String("base_prompt")
	promptContext := a.String("context")
	requirements := a.String("requirements")
	templateStyle := a.String("template_style")
	outputFormat := a.String("output_format")
	detailLevel := a.String("detail_level")
	exampleInput := a.String("example_input")
	exampleOutput := a.String("example_output")
	creativity := a.Float("creativity")
	a.String("model") // validated against the allow-list, unused otherwise
	a.String("api_key")
	if err := a.Err(); err != nil {
		return nil, err
	}

	// Build system prompt based on settings
	var systemParts []string

	if template, ok := promptTemplates[templateStyle]; ok {
		systemParts = append(systemParts, strings.NewReplacer(
			"{task}", basePrompt,
			"{context}", promptContext,
			"{requirements}", requirements,
		).Replace(template))
	}

	systemParts = append(systemParts, detailInstructions[detailLevel])

	switch outputFormat {
	case "markdown":
		systemParts = append(systemParts, "Format your response using proper Markdown syntax.")
	case "json":
		systemParts = append(systemParts, "Structure your response as valid JSON.")
	case "xml":
		systemParts = append(systemParts, "Structure your response using XML tags.")
	}

	if creativity < 0.3 {
		systemParts = append(systemParts, "Be factual and objective. Avoid speculation.")
	} else if creativity > 0.7 {
		systemParts = append(systemParts, "Feel free to be creative and explore interesting angles.")
	}

	systemPrompt := strings.Join(systemParts, "\n\n")

	// Build the main prompt
	promptParts := []string{basePrompt}

	if promptContext != "" {
		promptParts = append(promptParts, "Context: "+promptContext)
	}
	if requirements != "" {
		promptParts = append(promptParts, "Specific requirements: "+requirements)
	}
	if exampleInput != "" && exampleOutput != "" {
		promptParts = append(promptParts, fmt.Sprintf(
			"\nExample:\nInput: %s\nOutput: %s\n\nNow, following this pattern:",
			exampleInput, exampleOutput))
	}

	return Outputs{
		"engineered_prompt": strings.Join(promptParts, "\n\n"),
		"system_prompt_out": systemPrompt,
	}, nil
}
