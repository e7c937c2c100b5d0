package nodes

import (
	"context"
	"fmt"

	"claude-nodes/internal/imaging"
	"claude-nodes/internal/provider"
)

// Default prompts of the basic nodes.
const (
	DescribeImagePrompt = "Describe this image in detail."
	CombineTextsPrompt  = "Combine the following two texts into one coherent prompt without redundancies."
	TransformTextPrompt = "Transform this text:"
)

// modelInput and apiKeyInput are shared by every node that talks to Claude.
func modelInput(d Defaults) InputSpec {
	return InputSpec{Name: "model", Kind: KindChoice, Choices: Models, Default: d.defaultModel()}
}

func apiKeyInput() InputSpec {
	return InputSpec{Name: "api_key", Kind: KindString}
}

// complete issues a single completion through the node's provider.
func complete(ctx context.Context, p provider.Provider, d Defaults, a *args, prompt, system string, images []provider.Image) (string, error) {
	model := a.String("model")
	apiKey := a.String("api_key")
	if err := a.Err(); err != nil {
		return "", err
	}
	return p.Complete(ctx, provider.Request{
		Model:     model,
		System:    system,
		Prompt:    prompt,
		Images:    images,
		MaxTokens: d.MaxTokens,
		APIKey:    apiKey,
	})
}

// encodeImages converts every image in a batch tensor to a JPEG attachment.
func encodeImages(t imaging.Tensor) ([]provider.Image, error) {
	batch, err := t.Batch()
	if err != nil {
		return nil, err
	}
	images := make([]provider.Image, 0, len(batch))
	for _, frame := range batch {
		data, err := imaging.EncodeJPEG(frame)
		if err != nil {
			return nil, err
		}
		images = append(images, provider.Image{MediaType: "image/jpeg", Data: data})
	}
	return images, nil
}

// DescribeImage sends an image to Claude's vision API.
type DescribeImage struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewDescribeImage(p provider.Provider, d Defaults) *DescribeImage {
	return &DescribeImage{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Describe Image",
			Category: "Claude",
			Inputs: []InputSpec{
				{Name: "image", Kind: KindImage, Required: true},
				modelInput(d),
				apiKeyInput(),
				{Name: "system_prompt", Kind: KindString, Multiline: true},
				{Name: "prompt", Kind: KindString, Multiline: true, Default: DescribeImagePrompt},
			},
			Outputs: []string{"description"},
		},
	}
}

func (n *DescribeImage) Spec() Spec { return n.spec }

func (n *DescribeImage) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	tensor, _ := a.Image("image")
	prompt := a.String("prompt")
	system := a.String("system_prompt")
	if err := a.Err(); err != nil {
		return nil, err
	}

	images, err := encodeImages(tensor)
	if err != nil {
		return nil, err
	}

	description, err := complete(ctx, n.provider, n.defaults, a, prompt, system, images)
	if err != nil {
		return nil, err
	}
	return Outputs{"description": description}, nil
}

// CombineTexts merges two texts into one prompt via Claude.
type CombineTexts struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewCombineTexts(p provider.Provider, d Defaults) *CombineTexts {
	return &CombineTexts{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Combine Texts",
			Category: "Claude",
			Inputs: []InputSpec{
				{Name: "text_1", Kind: KindString, Required: true, Multiline: true},
				{Name: "text_1_prefix", Kind: KindString, Default: "1"},
				{Name: "text_2", Kind: KindString, Required: true, Multiline: true},
				{Name: "text_2_prefix", Kind: KindString, Default: "2"},
				modelInput(d),
				apiKeyInput(),
				{Name: "system_prompt", Kind: KindString, Multiline: true},
				{Name: "prompt", Kind: KindString, Multiline: true, Default: CombineTextsPrompt},
			},
			Outputs: []string{"combined_texts"},
		},
	}
}

func (n *CombineTexts) Spec() Spec { return n.spec }

func (n *CombineTexts) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	text1 := a.String("text_1")
	prefix1 := a.String("text_1_prefix")
	text2 := a.String("text_2")
	prefix2 := a.String("text_2_prefix")
	prompt := a.String("prompt")
	system := a.String("system_prompt")
	if err := a.Err(); err != nil {
		return nil, err
	}

	fullPrompt := fmt.Sprintf("%s\n%s %s\n%s %s", prompt, prefix1, text1, prefix2, text2)

	combined, err := complete(ctx, n.provider, n.defaults, a, fullPrompt, system, nil)
	if err != nil {
		return nil, err
	}
	return Outputs{"combined_texts": combined}, nil
}

// TransformText rewrites text according to the prompt via Claude.
type TransformText struct {
	provider provider.Provider
	defaults Defaults
	spec     Spec
}

func NewTransformText(p provider.Provider, d Defaults) *TransformText {
	return &TransformText{
		provider: p,
		defaults: d,
		spec: Spec{
			Name:     "Transform Text",
			Category: "Claude",
			Inputs: []InputSpec{
				{Name: "text", Kind: KindString, Required: true, Multiline: true},
				modelInput(d),
				apiKeyInput(),
				{Name: "system_prompt", Kind: KindString, Multiline: true},
				{Name: "prompt", Kind: KindString, Multiline: true, Default: TransformTextPrompt},
			},
			Outputs: []string{"transformed_text"},
		},
	}
}

func (n *TransformText) Spec() Spec { return n.spec }

func (n *TransformText) Execute(ctx context.Context, in Inputs) (Outputs, error) {
	a := newArgs(n.spec, in)
	text := a.String("text")
	prompt := a.String("prompt")
	system := a.String("system_prompt")
	if err := a.Err(); err != nil {
		return nil, err
	}

	fullPrompt := fmt.Sprintf("%s\nText: %s\n", prompt, text)

	transformed, err := complete(ctx, n.provider, n.defaults, a, fullPrompt, system, nil)
	if err != nil {
		return nil, err
	}
	return Outputs{"transformed_text": transformed}, nil
}
