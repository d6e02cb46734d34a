// Package migration upgrades an on-disk journal document across schema
// versions before the journal package unmarshals it into typed state.
// Grounded on pkg/sync/state.go's LoadState version check, generalized
// from a single reject-if-newer guard into a pluggable step registry.
package migration

import "fmt"

// Step upgrades a raw journal document from one schema version to the
// next. Apply mutates raw in place.
type Step struct {
	FromVersion int
	ToVersion   int
	Apply       func(raw map[string]any) error
}

// Runner applies a sequence of Steps in order until the document reaches
// the target version.
type Runner struct {
	steps []Step
}

// NewRunner builds a Runner from steps, which must be sorted by
// FromVersion and contiguous (step[i].ToVersion == step[i+1].FromVersion).
func NewRunner(steps ...Step) *Runner {
	return &Runner{steps: steps}
}

// Upgrade walks raw from its current "schema_version" field (0 if
// absent) through every applicable Step, returning the final version
// reached. It errors if raw declares a version newer than any step
// covers, matching LoadState's "newer than supported" rejection.
func (r *Runner) Upgrade(raw map[string]any) (int, error) {
	current := schemaVersion(raw)

	targetVersion := current
	if len(r.steps) > 0 {
		targetVersion = r.steps[len(r.steps)-1].ToVersion
	}
	if current > targetVersion {
		return current, fmt.Errorf("migration: schema version %d is newer than supported version %d", current, targetVersion)
	}

	for _, step := range r.steps {
		if current != step.FromVersion {
			continue
		}
		if err := step.Apply(raw); err != nil {
			return current, fmt.Errorf("migration: upgrade %d -> %d: %w", step.FromVersion, step.ToVersion, err)
		}
		raw["schema_version"] = step.ToVersion
		current = step.ToVersion
	}

	return current, nil
}

func schemaVersion(raw map[string]any) int {
	v, ok := raw["schema_version"]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// CurrentSchemaVersion is the schema version this build of the journal
// format understands.
const CurrentSchemaVersion = 3

// DefaultSteps upgrades legacy journal documents (schema < 3, the
// pre-discriminator record format) up to CurrentSchemaVersion.
func DefaultSteps() []Step {
	return []Step{
		{
			FromVersion: 0,
			ToVersion:   1,
			Apply: func(raw map[string]any) error {
				if _, ok := raw["file_export_names"]; !ok {
					raw["file_export_names"] = map[string]any{}
				}
				if _, ok := raw["collection_export_names"]; !ok {
					raw["collection_export_names"] = map[string]any{}
				}
				return nil
			},
		},
		{
			FromVersion: 1,
			ToVersion:   2,
			Apply: func(raw map[string]any) error {
				if _, ok := raw["stage"]; !ok {
					raw["stage"] = float64(0)
				}
				return nil
			},
		},
		{
			// Introduces the explicit Kind discriminator on file
			// records; legacy records stored either a plain string
			// (single file) or an object (live photo) and relied on
			// JSON-parseability to tell them apart.
			FromVersion: 2,
			ToVersion:   3,
			Apply: func(raw map[string]any) error {
				names, _ := raw["file_export_names"].(map[string]any)
				for uid, v := range names {
					switch rec := v.(type) {
					case string:
						names[uid] = map[string]any{"kind": float64(0), "name": rec}
					case map[string]any:
						if _, ok := rec["kind"]; !ok {
							if _, isLive := rec["image"]; isLive {
								rec["kind"] = float64(1)
							} else {
								rec["kind"] = float64(0)
							}
						}
					}
				}
				return nil
			},
		},
	}
}
