package catalog

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rpcns/internal/jsonrpc"
	"rpcns/internal/transport"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// MethodsEndpoint lists the methods a node serves
const MethodsEndpoint = "rpc_methods"

// Network is the static description of one target network
type Network struct {
	Name      string   `yaml:"name"`
	Catalog   Catalog  `yaml:"catalog"`
	Supported []string `yaml:"supported"`
}

// SupportedSet returns the network's supported identifiers as a set
func (n *Network) SupportedSet() SupportedSet {
	return NewSupportedSet(n.Supported)
}

// ParseNetwork parses a YAML network document
func ParseNetwork(data []byte) (*Network, error) {
	var n Network
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse network: %w", err)
	}
	if n.Name == "" {
		return nil, fmt.Errorf("network name is required")
	}
	return &n, nil
}

// Preset returns an embedded network description by name
func Preset(name string) (*Network, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown network preset '%s'", name)
	}
	n, err := ParseNetwork(data)
	if err != nil {
		return nil, fmt.Errorf("preset '%s': %w", name, err)
	}
	return n, nil
}

// PresetNames returns the names of all embedded networks
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// methodsResult is the rpc_methods result shape
type methodsResult struct {
	Version int      `json:"version"`
	Methods []string `json:"methods"`
}

// Discover asks the node which methods it serves
func Discover(ctx context.Context, sender transport.Sender) (SupportedSet, error) {
	req, err := jsonrpc.NewRequest(MethodsEndpoint, nil, transport.NextID())
	if err != nil {
		return nil, err
	}

	resp, err := sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", MethodsEndpoint, err)
	}
	if resp.HasError() {
		return nil, fmt.Errorf("failed to call %s: %w", MethodsEndpoint, resp.Error)
	}

	var result methodsResult
	if err := resp.GetResultAs(&result); err != nil {
		return nil, fmt.Errorf("invalid %s result: %w", MethodsEndpoint, err)
	}

	return NewSupportedSet(result.Methods), nil
}
