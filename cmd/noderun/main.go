package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"claude-nodes/internal/nodes"
	"claude-nodes/internal/provider"
	"claude-nodes/internal/provider/anthropic"
	"claude-nodes/internal/provider/gateway"
	"claude-nodes/pkg/config"
	"claude-nodes/pkg/logger"
)

// noderun executes a single node from the command line:
//
//	noderun -list
//	noderun -node "Transform Text" -inputs inputs.json
//	echo '{"text": "hi"}' | noderun -node "Transform Text"
func main() {
	listNodes := flag.Bool("list", false, "list registered nodes and exit")
	nodeName := flag.String("node", "", "name of the node to execute")
	inputsPath := flag.String("inputs", "", "JSON file with node inputs (default: stdin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Env); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry := nodes.DefaultRegistry(buildProvider(cfg), nodes.Defaults{
		Model:     cfg.ModelID,
		MaxTokens: cfg.MaxTokens,
	})

	if *listNodes {
		for _, spec := range registry.Specs() {
			fmt.Printf("%-24s %s\n", spec.Name, spec.Category)
		}
		return
	}

	if *nodeName == "" {
		fmt.Fprintln(os.Stderr, "either -list or -node is required")
		flag.Usage()
		os.Exit(2)
	}

	in, err := readInputs(*inputsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read inputs: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	outputs, err := registry.Run(ctx, *nodeName, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute node: %v\n", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode outputs: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}

func readInputs(path string) (nodes.Inputs, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nodes.Inputs{}, nil
	}

	var in nodes.Inputs
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("invalid inputs JSON: %w", err)
	}
	return in, nil
}

func buildProvider(cfg *config.Config) provider.Provider {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if cfg.Provider == config.ProviderGateway {
		return gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, timeout)
	}
	return anthropic.NewClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, timeout)
}
