package nodes

import (
	"context"
	"fmt"

	"claude-nodes/internal/provider"
)

// ContextAwareDescribe describes one or more images with awareness of their
// relationships, prior analysis and scene context. Batched tensors become
// multiple image attachments on a single vision call.
type ContextAwareDescribe struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewContextAwareDescribe(p provider.Provider, d Defaults) *ContextAwareDescribe {
	return &ContextAwareDescribe{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Context Aware Describe",
			Category: "Claude/Advanced",
			Inputs: []InputSpec{
				{Name: "images", Kind: KindImage, Required: true},
				{Name: "comparison_mode", Kind: KindChoice, Default: "individual", Choices: []string{
					"individual", "comparative", "sequential", "holistic",
				}},
				{Name: "previous_description", Kind: KindString, Multiline: true, Default: ""},
				{Name: "scene_context", Kind: KindString, Multiline: true, Default: ""},
				{Name: "focus_elements", Kind: KindString, Default: "subjects, colors, composition, mood, technical quality"},
				{Name: "base_prompt", Kind: KindString, Multiline: true, Default: "Analyze these images with attention to their relationships and context."},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"description"},
		},
	}
}

func (n *ContextAwareDescribe) Spec() Spec { return n.spec }

func (n *ContextAwareDescribe) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	tensor, _ := a.Image("images")
	comparisonMode := a.String("comparison_mode")
	previousDescription := a.String("previous_description")
	sceneContext := a.String("scene_context")
	focusElements := a.String("focus_elements")
	basePrompt := a.String("base_prompt")
	if err := a.Err(); err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf(`You are an expert image analyst with deep understanding of visual context and relationships.

Focus on these elements: %s

Analysis mode: %s
- individual: Describe each image separately but note connections
- comparative: Focus on differences and similarities
- sequential: Treat as a sequence or progression
- holistic: Describe as parts of a whole scene or concept
`, focusElements, comparisonMode)

	if sceneContext != "" {
		systemPrompt += "\n\nScene context: " + sceneContext
	}
	if previousDescription != "" {
		systemPrompt += "\n\nPrevious analysis for context: " + previousDescription
	}

	fullPrompt := basePrompt
	switch comparisonMode {
	case "comparative":
		fullPrompt += "\n\nCompare and contrast these images, highlighting key differences and similarities."
	case "sequential":
		fullPrompt += "\n\nDescribe these images as a sequence, noting progressions and changes."
	case "holistic":
		fullPrompt += "\n\nDescribe how these images relate to form a complete picture or narrative."
	}

	images, err := encodeImages(tensor)
	if err != nil {
		return nil, err
	}

	description, err := complete(ctx, n.provider, n.defaults, a, fullPrompt, systemPrompt, images)
	if err != nil {
		return nil, err
	}
	return Outputs{"description": description}, nil
}
