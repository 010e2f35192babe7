// Package catalog defines the species and node vocabulary shared by the
// retrieval pipeline, plus the resolver boundary to the VAMDC registry.
// The registry itself (node enumeration, species search, snapshot caching)
// is an external service and is not implemented here.
package catalog

import (
	"fmt"
	"strings"
)

// SpeciesKind selects the conversion profile applied to a fetched payload.
type SpeciesKind string

const (
	KindAtom     SpeciesKind = "atom"
	KindMolecule SpeciesKind = "molecule"
)

// ParseKind normalizes a registry-reported species type string.
func ParseKind(s string) (SpeciesKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "atom", "atomic":
		return KindAtom, nil
	case "molecule", "molecular":
		return KindMolecule, nil
	default:
		return "", fmt.Errorf("unknown species kind %q", s)
	}
}

// Species identifies one chemical species by its InChIKey.
type Species struct {
	InChIKey string
	Kind     SpeciesKind
	Name     string
}

// Node is one independently operated VAMDC data provider.
type Node struct {
	// Identifier is the registry ivo identifier, used for grouping and
	// artifact naming.
	Identifier string
	// TAPEndpoint is the base URL of the node's sync query service,
	// ending with a slash.
	TAPEndpoint string
}

// Target pairs one species with one node that may hold data for it.
type Target struct {
	Species Species
	Node    Node
}

// Resolver turns species and node selections into concrete probe targets.
// Production resolvers are backed by the VAMDC registry; the pipeline only
// depends on this interface.
type Resolver interface {
	// Resolve returns the cross product of the given species and nodes,
	// restricted to combinations the registry believes can hold data.
	Resolve(species []Species, nodes []Node) ([]Target, error)
}

// StaticResolver resolves against a fixed species/node list with no
// registry knowledge: every species is paired with every node.
type StaticResolver struct{}

// Resolve returns the full species×node cross product.
func (StaticResolver) Resolve(species []Species, nodes []Node) ([]Target, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("no species selected")
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes selected")
	}
	targets := make([]Target, 0, len(species)*len(nodes))
	for _, n := range nodes {
		for _, s := range species {
			targets = append(targets, Target{Species: s, Node: n})
		}
	}
	return targets, nil
}

// SanitizeIdentifier flattens a node identifier or endpoint into a string
// safe for use in file names.
func SanitizeIdentifier(id string) string {
	replacer := strings.NewReplacer(
		"://", "_",
		"/", "_",
		":", "_",
		"?", "_",
		"&", "_",
		"=", "_",
		" ", "_",
	)
	s := replacer.Replace(id)
	return strings.Trim(s, "_.")
}
