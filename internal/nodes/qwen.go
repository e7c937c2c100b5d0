package nodes

import (
	"context"
	"fmt"
	"strings"

	"claude-nodes/internal/provider"
)

// flattenCommands collapses a multi-line bullet response into a single
// comma-separated edit instruction.
func flattenCommands(s string) string {
	s = strings.ReplaceAll(s, "\n", ", ")
	s = strings.ReplaceAll(s, "- ", "")
	return strings.TrimSpace(s)
}

// QwenPromptGenerator builds action-oriented edit prompts for Qwen image
// editing from a problem description and edit toggles, then has Claude
// compress them into a bounded action-verb instruction.
type QwenPromptGenerator struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewQwenPromptGenerator(p provider.Provider, d Defaults) *QwenPromptGenerator {
	return &QwenPromptGenerator{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Qwen Prompt Generator",
			Category: "Claude/Qwen",
			Inputs: []InputSpec{
				{Name: "problem_description", Kind: KindString, Multiline: true, Default: "Foot appears to float above ground"},
				{Name: "edit_ground", Kind: KindBoolean, Default: true},
				{Name: "edit_shadows", Kind: KindBoolean, Default: true},
				{Name: "edit_integration", Kind: KindBoolean, Default: true},
				{Name: "light_direction", Kind: KindChoice, Default: "middle-right", Choices: []string{
					"top-left", "top-right", "middle-left", "middle-right",
					"bottom-left", "bottom-right", "ambient",
				}},
				{Name: "light_quality", Kind: KindChoice, Default: "golden hour", Choices: []string{
					"harsh", "soft", "golden hour", "overcast", "dramatic",
				}},
				{Name: "ground_type", Kind: KindChoice, Default: "rocky", Choices: []string{
					"rocky", "soil", "grass", "sand", "stone", "mixed",
				}},
				{Name: "output_style", Kind: KindChoice, Default: "single_line", Choices: []string{
					"single_line", "bullet_points", "numbered_steps",
				}},
				{Name: "max_words", Kind: KindInt, Default: 50, Min: 20, Max: 100},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"qwen_prompt"},
		},
	}
}

func (n *QwenPromptGenerator) Spec() Spec { return n.spec }

func (n *QwenPromptGenerator) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	problemDescription := a.String("problem_description")
	editGround := a.Bool("edit_ground")
	editShadows := a.Bool("edit_shadows")
	editIntegration := a.Bool("edit_integration")
	lightDirection := a.String("light_direction")
	lightQuality := a.String("light_quality")
	groundType := a.String("ground_type")
	outputStyle := a.String("output_style")
	maxWords := a.Int("max_words")
	if err := a.Err(); err != nil {
		return nil, err
	}

	// Build the command components
	var commands []string

	if editGround {
		commands = append(commands,
			fmt.Sprintf("Anchor firmly onto %s ground", groundType),
			fmt.Sprintf("Create realistic deformation in %s", groundType),
			"Compress terrain at weight points",
		)
	}

	if editShadows {
		lightDirText := strings.ReplaceAll(lightDirection, "-", " ")
		commands = append(commands, fmt.Sprintf("Cast %s shadows from %s", lightQuality, lightDirText))
		if editGround {
			commands = append(commands, "Add contact shadows at ground meeting points")
		}
	}

	if editIntegration {
		commands = append(commands,
			"Blend naturally with surface texture",
			"Match environmental lighting",
		)
	}

	systemPrompt := fmt.Sprintf(`You are a Qwen edit prompt optimizer.
Convert the given commands into a %d-word maximum edit instruction.
Use ONLY action verbs. No descriptions or explanations.
Output format: %s`, maxWords, outputStyle)

	basePrompt := fmt.Sprintf(`Problem: %s

Required edits:
%s

Combine these into a %d-word Qwen edit instruction using only action verbs.`,
		problemDescription, strings.Join(commands, "\n"), maxWords)

	result, err := complete(ctx, n.provider, n.defaults, a, basePrompt, systemPrompt, nil)
	if err != nil {
		return nil, err
	}

	if outputStyle == "single_line" {
		result = flattenCommands(result)
	}

	return Outputs{"qwen_prompt": result}, nil
}

// QwenFromImage analyzes an image for integration problems and converts the
// analysis into Qwen edit commands: one vision call, one text call.
type QwenFromImage struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewQwenFromImage(p provider.Provider, d Defaults) *QwenFromImage {
	return &QwenFromImage{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Qwen From Image",
			Category: "Claude/Qwen",
			Inputs: []InputSpec{
				{Name: "image", Kind: KindImage, Required: true},
				{Name: "analyze_ground", Kind: KindBoolean, Default: true},
				{Name: "analyze_lighting", Kind: KindBoolean, Default: true},
				{Name: "analyze_integration", Kind: KindBoolean, Default: true},
				{Name: "known_issues", Kind: KindString, Multiline: true, Default: ""},
				{Name: "target_description", Kind: KindString, Default: "Realistic ground contact with proper shadows"},
				modelInput(d),
				apiKeyInput(),
			},
			Outputs: []string{"qwen_prompt", "analysis"},
		},
	}
}

func (n *QwenFromImage) Spec() Spec { return n.spec }

func (n *QwenFromImage) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	tensor, _ := a.Image("image")
	analyzeGround := a.Bool("analyze_ground")
	analyzeLighting := a.Bool("analyze_lighting")
	analyzeIntegration := a.Bool("analyze_integration")
	knownIssues := a.String("known_issues")
	targetDescription := a.String("target_description")
	if err := a.Err(); err != nil {
		return nil, err
	}

	var focusAreas []string
	if analyzeGround {
		focusAreas = append(focusAreas, "ground contact and deformation")
	}
	if analyzeLighting {
		focusAreas = append(focusAreas, "shadows and lighting consistency")
	}
	if analyzeIntegration {
		focusAreas = append(focusAreas, "edge blending and integration")
	}

	analysisSystem := fmt.Sprintf(`You are a visual effects specialist identifying specific fixes needed.
Focus on: %s
Output format: List specific problems that need editing, not descriptions.`, strings.Join(focusAreas, ", "))

	issuesLine := ""
	if knownIssues != "" {
		issuesLine = "Known issues: " + knownIssues
	}
	analysisPrompt := fmt.Sprintf(`Identify editing requirements to achieve: %s
%s
List ONLY what needs to be changed, as brief statements.`, targetDescription, issuesLine)

	images, err := encodeImages(tensor)
	if err != nil {
		return nil, err
	}

	analysis, err := complete(ctx, n.provider, n.defaults, a, analysisPrompt, analysisSystem, images)
	if err != nil {
		return nil, err
	}

	commandSystem := `Convert problem statements to Qwen edit commands.
Use pattern: [VERB] [OBJECT] [SPECIFICATION]
Examples: 'Anchor foot to ground', 'Create shadow from right', 'Deepen contact depression'
Maximum 50 words total. Single line output.`

	commandPrompt := fmt.Sprintf(`Convert these issues to edit commands:
%s

Target result: %s`, analysis, targetDescription)

	qwenPrompt, err := complete(ctx, n.provider, n.defaults, a, commandPrompt, commandSystem, nil)
	if err != nil {
		return nil, err
	}

	return Outputs{
		"qwen_prompt": flattenCommands(qwenPrompt),
		"analysis":    analysis,
	}, nil
}
