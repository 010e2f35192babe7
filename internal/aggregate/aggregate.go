// Package aggregate merges converted fragment artifacts into one artifact
// per (node, species kind) group. Fragments drift in their optional
// columns, so the merge unions columns by name; merge order within a group
// is irrelevant to correctness.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"spectral/internal/catalog"
	"spectral/internal/fragment"
	"spectral/internal/table"
)

// Results maps species kind, then node identifier, to the merged artifact
// path for that group. Groups with no successful fragments are absent.
type Results map[catalog.SpeciesKind]map[string]string

// Aggregator merges per-fragment artifacts after the execution phase.
type Aggregator struct {
	artifactDir string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAggregator writes merged artifacts into artifactDir.
func NewAggregator(artifactDir string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{artifactDir: artifactDir, logger: logger, now: time.Now}
}

type groupKey struct {
	nodeID string
	kind   catalog.SpeciesKind
}

// Aggregate groups successfully converted leaves by (node, species kind)
// and merges each group's artifacts into one file. A group that fails to
// merge is logged and omitted; sibling groups are unaffected.
func (a *Aggregator) Aggregate(leaves []*fragment.Fragment, lambdaMin, lambdaMax float64) (Results, error) {
	groups := make(map[groupKey][]*fragment.Fragment)
	order := make([]groupKey, 0)
	for _, leaf := range leaves {
		if leaf.Conversion != fragment.ConversionSucceeded || leaf.ArtifactPath == "" {
			continue
		}
		key := groupKey{nodeID: nodeID(leaf.Node), kind: leaf.Species.Kind}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], leaf)
	}

	if err := os.MkdirAll(a.artifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact dir: %w", err)
	}

	results := make(Results)
	stamp := a.now().UTC().Format("20060102T150405")
	for _, key := range order {
		merged, err := a.mergeGroup(groups[key])
		if err != nil {
			a.logger.Error("group merge failed, omitting group",
				zap.String("node", key.nodeID),
				zap.String("kind", string(key.kind)),
				zap.Error(err))
			continue
		}

		name := fmt.Sprintf("lines_%s_%s_%.6e_%.6e_%s.csv",
			key.kind, catalog.SanitizeIdentifier(key.nodeID), lambdaMin, lambdaMax, stamp)
		path := filepath.Join(a.artifactDir, name)
		if err := merged.WriteCSV(path); err != nil {
			a.logger.Error("merged artifact write failed, omitting group",
				zap.String("node", key.nodeID),
				zap.String("kind", string(key.kind)),
				zap.Error(err))
			continue
		}

		if results[key.kind] == nil {
			results[key.kind] = make(map[string]string)
		}
		results[key.kind][key.nodeID] = path
		a.logger.Info("group merged",
			zap.String("node", key.nodeID),
			zap.String("kind", string(key.kind)),
			zap.Int("fragments", len(groups[key])),
			zap.Int("rows", merged.NumRows()),
			zap.String("artifact", path))
	}
	return results, nil
}

func (a *Aggregator) mergeGroup(frags []*fragment.Fragment) (*table.Table, error) {
	var merged *table.Table
	for _, f := range frags {
		t, err := table.ReadCSV(f.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", f.ID, err)
		}
		if merged == nil {
			merged = t
			continue
		}
		merged.Merge(t)
	}
	if merged == nil {
		return nil, fmt.Errorf("empty group")
	}
	return merged, nil
}

func nodeID(n catalog.Node) string {
	if n.Identifier != "" {
		return n.Identifier
	}
	return n.TAPEndpoint
}

// MetadataRecords snapshots every probed fragment for caller-visible
// reporting, internal fragments included.
func MetadataRecords(probed []*fragment.Fragment) []fragment.MetadataRecord {
	records := make([]fragment.MetadataRecord, 0, len(probed))
	for _, f := range probed {
		records = append(records, f.Metadata())
	}
	return records
}
