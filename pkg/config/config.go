package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilnhq/kiln/pkg/types"
)

// Catalog is the central configuration document: one entry per target,
// keyed by ctid.
type Catalog struct {
	Targets map[string]types.TargetConfig `json:"targets" yaml:"targets"`
}

// LoadCatalog reads and decodes a catalog file. JSON is the primary format;
// files ending in .yaml or .yml are decoded as YAML with the same schema.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	}

	if catalog.Targets == nil {
		return nil, fmt.Errorf("catalog has no targets section")
	}

	return &catalog, nil
}

// Resolver extracts and validates a single target's configuration.
type Resolver struct {
	validate *validator.Validate
}

// NewResolver creates a config resolver. Validation diagnostics use the
// catalog's JSON field names, not Go struct names.
func NewResolver() *Resolver {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Resolver{validate: v}
}

// Resolve looks up ctid in the catalog and returns its validated
// configuration. Feature inheritance along the clone-parent chain is applied
// before validation.
func (r *Resolver) Resolve(catalog *Catalog, ctid int) (types.TargetConfig, error) {
	key := strconv.Itoa(ctid)
	cfg, ok := catalog.Targets[key]
	if !ok {
		return types.TargetConfig{}, types.NewStageError(types.KindConfigInvalid, "resolve",
			fmt.Errorf("no catalog entry for ctid %d", ctid))
	}

	cfg.Features = inheritedFeatures(catalog, key)

	return r.finish(cfg, ctid)
}

// ResolveBlock parses a single target's JSON configuration block, as passed
// on the clone workflow's command line, and validates it against ctid.
func (r *Resolver) ResolveBlock(block string, ctid int) (types.TargetConfig, error) {
	var cfg types.TargetConfig
	if err := json.Unmarshal([]byte(block), &cfg); err != nil {
		return types.TargetConfig{}, types.NewStageError(types.KindConfigInvalid, "resolve",
			fmt.Errorf("failed to parse target block: %w", err))
	}
	return r.finish(cfg, ctid)
}

// finish applies defaults and runs validation. All malformed input is
// rejected here, never later at runtime-invocation time.
func (r *Resolver) finish(cfg types.TargetConfig, ctid int) (types.TargetConfig, error) {
	if cfg.CTID == 0 {
		cfg.CTID = ctid
	}
	if cfg.CTID != ctid {
		return types.TargetConfig{}, types.NewStageError(types.KindConfigInvalid, "resolve",
			fmt.Errorf("field ctid: catalog entry says %d, workflow targets %d", cfg.CTID, ctid))
	}
	if cfg.Features == nil {
		cfg.Features = []string{}
	}

	if err := r.validate.Struct(cfg); err != nil {
		return types.TargetConfig{}, types.NewStageError(types.KindConfigInvalid, "resolve", namedFieldError(err))
	}

	return cfg, nil
}

// namedFieldError converts a validator error into a diagnostic naming the
// first offending field, so the operator sees "field memory_mb" rather than
// a struct dump.
func namedFieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("field %s: failed %q constraint (value %v)", fe.Field(), fe.Tag(), fe.Value())
}

// inheritedFeatures unions a target's features with those of its clone
// parents, sorted for a stable result. Catalog cycles terminate because each
// entry is visited at most once.
func inheritedFeatures(catalog *Catalog, key string) []string {
	seen := make(map[string]struct{})
	visited := make(map[string]struct{})

	for key != "" {
		if _, done := visited[key]; done {
			break
		}
		visited[key] = struct{}{}

		entry, ok := catalog.Targets[key]
		if !ok {
			break
		}
		for _, f := range entry.Features {
			seen[f] = struct{}{}
		}
		if entry.CloneFromCTID > 0 {
			key = strconv.Itoa(entry.CloneFromCTID)
		} else {
			key = ""
		}
	}

	features := make([]string, 0, len(seen))
	for f := range seen {
		features = append(features, f)
	}
	sort.Strings(features)
	return features
}
