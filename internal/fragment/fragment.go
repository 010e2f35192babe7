// Package fragment models one wavelength-bounded, node-bounded,
// species-bounded unit of query work and the probe/split protocol that
// turns a requested interval into executable leaf fragments.
package fragment

import (
	"fmt"

	"github.com/google/uuid"

	"spectral/internal/catalog"
	"spectral/internal/vamdc"
)

// ConversionStatus tracks the fetch-phase outcome of a leaf fragment.
type ConversionStatus string

const (
	ConversionNotAttempted ConversionStatus = "not_attempted"
	ConversionSucceeded    ConversionStatus = "succeeded"
	ConversionFailed       ConversionStatus = "failed"
)

// Fragment is one candidate sub-interval query against one node for one
// species. The request shape is fixed at creation; probe and execution
// outcomes are populated once and never mutated afterwards.
type Fragment struct {
	// Identity, independent of any server-assigned token.
	ID string

	// Immutable request shape.
	Node             catalog.Node
	Species          catalog.Species
	LambdaMin        float64 // Angstrom
	LambdaMax        float64 // Angstrom
	AcceptTruncation bool

	// Derived request strings.
	Query string
	URL   string

	// Probe outcome.
	HasData      bool
	Truncated    bool
	CountHeaders map[string]string

	// Leaf is true when the fragment is eligible for fetch: its probe
	// reported no truncation, or truncation was accepted. Internal
	// fragments exist only as split points and are never executed.
	Leaf bool

	// Execution outcome, leaf fragments only.
	Token        string
	PayloadPath  string
	ArtifactPath string
	Conversion   ConversionStatus
	FailureCause string
}

// New builds a fragment with its derived query text and request URL.
// The lower bound must be strictly below the upper bound.
func New(node catalog.Node, species catalog.Species, lambdaMin, lambdaMax float64, acceptTruncation bool) (*Fragment, error) {
	if !(lambdaMin < lambdaMax) {
		return nil, fmt.Errorf("degenerate interval [%g, %g]", lambdaMin, lambdaMax)
	}
	query := vamdc.BuildQuery(lambdaMin, lambdaMax, species.InChIKey)
	return &Fragment{
		ID:               uuid.NewString(),
		Node:             node,
		Species:          species,
		LambdaMin:        lambdaMin,
		LambdaMax:        lambdaMax,
		AcceptTruncation: acceptTruncation,
		Query:            query,
		URL:              vamdc.RequestURL(node.TAPEndpoint, query),
		Conversion:       ConversionNotAttempted,
	}, nil
}

// RowToken identifies this fragment's rows in merged artifacts: the server
// request token when one was assigned, otherwise the local id qualified by
// the node endpoint.
func (f *Fragment) RowToken() string {
	if f.Token != "" {
		return f.Token
	}
	return f.ID + "@" + f.Node.TAPEndpoint
}

// FileToken names persisted payloads and artifacts: the server token when
// present, otherwise the local id.
func (f *Fragment) FileToken() string {
	if f.Token != "" {
		return catalog.SanitizeIdentifier(f.Token)
	}
	return f.ID
}

// MetadataRecord is the flat caller-visible snapshot of one fragment. It is
// a value with no further lifecycle.
type MetadataRecord struct {
	FragmentID   string            `json:"fragment_id"`
	NodeID       string            `json:"node_id"`
	Endpoint     string            `json:"endpoint"`
	Query        string            `json:"query"`
	LambdaMin    float64           `json:"lambda_min"`
	LambdaMax    float64           `json:"lambda_max"`
	InChIKey     string            `json:"inchikey"`
	Kind         string            `json:"kind"`
	Leaf         bool              `json:"leaf"`
	Truncated    bool              `json:"truncated"`
	CountHeaders map[string]string `json:"count_headers,omitempty"`
	Conversion   ConversionStatus  `json:"conversion"`
	PayloadPath  string            `json:"payload_path,omitempty"`
	ArtifactPath string            `json:"artifact_path,omitempty"`
	FailureCause string            `json:"failure_cause,omitempty"`
}

// Metadata snapshots the fragment for reporting.
func (f *Fragment) Metadata() MetadataRecord {
	return MetadataRecord{
		FragmentID:   f.ID,
		NodeID:       f.Node.Identifier,
		Endpoint:     f.Node.TAPEndpoint,
		Query:        f.Query,
		LambdaMin:    f.LambdaMin,
		LambdaMax:    f.LambdaMax,
		InChIKey:     f.Species.InChIKey,
		Kind:         string(f.Species.Kind),
		Leaf:         f.Leaf,
		Truncated:    f.Truncated,
		CountHeaders: f.CountHeaders,
		Conversion:   f.Conversion,
		PayloadPath:  f.PayloadPath,
		ArtifactPath: f.ArtifactPath,
		FailureCause: f.FailureCause,
	}
}
