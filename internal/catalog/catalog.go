package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Separator joins a namespace and an endpoint name into a method identifier
const Separator = "_"

// MethodID returns the fully-qualified wire method name, e.g. chain_getBlock
func MethodID(namespace, endpoint string) string {
	return namespace + Separator + endpoint
}

// Section is one namespace of the catalog with its endpoint names in order
type Section struct {
	Namespace string
	Endpoints []string
}

// Catalog maps namespaces to ordered endpoint names.
// Namespace order is the order of the source document.
type Catalog []Section

// Namespaces returns the namespace names in catalog order
func (c Catalog) Namespaces() []string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Namespace)
	}
	return names
}

// Endpoints returns the endpoint names listed for a namespace
func (c Catalog) Endpoints(namespace string) ([]string, bool) {
	for _, s := range c {
		if s.Namespace == namespace {
			return s.Endpoints, true
		}
	}
	return nil, false
}

// MethodIDs returns every fully-qualified identifier the catalog describes
func (c Catalog) MethodIDs() []string {
	var ids []string
	for _, s := range c {
		for _, e := range s.Endpoints {
			ids = append(ids, MethodID(s.Namespace, e))
		}
	}
	return ids
}

// UnmarshalYAML decodes a "namespace: [endpoint, ...]" mapping preserving key order
func (c *Catalog) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.DocumentNode && len(value.Content) > 0 {
		value = value.Content[0]
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: catalog must be a mapping of namespace to endpoint list", value.Line)
	}

	sections := make(Catalog, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.Value == "" {
			return fmt.Errorf("line %d: namespace must be a non-empty string", keyNode.Line)
		}

		var endpoints []string
		switch valNode.Kind {
		case yaml.SequenceNode:
			if err := valNode.Decode(&endpoints); err != nil {
				return fmt.Errorf("namespace '%s': %w", keyNode.Value, err)
			}
		case yaml.ScalarNode:
			// "chain:" with no value is an empty namespace
			if valNode.Tag != "!!null" {
				return fmt.Errorf("line %d: namespace '%s' must list endpoints", valNode.Line, keyNode.Value)
			}
		default:
			return fmt.Errorf("line %d: namespace '%s' must list endpoints", valNode.Line, keyNode.Value)
		}

		if endpoints == nil {
			endpoints = []string{}
		}
		sections = append(sections, Section{Namespace: keyNode.Value, Endpoints: endpoints})
	}

	*c = sections
	return nil
}

// Parse parses a YAML catalog document
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML catalog file
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// SupportedSet holds the fully-qualified identifiers a network serves
type SupportedSet map[string]struct{}

// NewSupportedSet builds a set from a list of identifiers
func NewSupportedSet(ids []string) SupportedSet {
	s := make(SupportedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is supported
func (s SupportedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// List returns the identifiers sorted
func (s SupportedSet) List() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseSupported parses a YAML list of identifiers
func ParseSupported(data []byte) (SupportedSet, error) {
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse supported methods: %w", err)
	}
	return NewSupportedSet(ids), nil
}

// LoadSupported reads and parses a YAML list of identifiers
func LoadSupported(path string) (SupportedSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read supported methods file: %w", err)
	}
	return ParseSupported(data)
}
