package entitlement

import (
	"bytes"
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// PlanSource looks up plans.
type PlanSource interface {
	GetPlan(ctx context.Context, slug string) (Plan, error)
	PublicPlans(ctx context.Context) ([]Plan, error)
}

// Catalog is an immutable in-memory PlanSource.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog validates plans and builds a catalog from them.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.plans[p.Slug]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlan, p.Slug)
		}
		c.plans[p.Slug] = p.clone()
	}
	return c, nil
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// LoadCatalog decodes a YAML plan catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode plan catalog: %w", err)
	}
	return NewCatalog(f.Plans...)
}

// LoadCatalogFile reads a YAML plan catalog from path.
// An empty path returns DefaultCatalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the built-in plans: trial, starter, professional,
// business and the non-public superadmin plan.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultPlans))
}

// GetPlan implements PlanSource.
func (c *Catalog) GetPlan(_ context.Context, slug string) (Plan, error) {
	p, ok := c.plans[slug]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, slug)
	}
	return p.clone(), nil
}

// PublicPlans implements PlanSource. Plans are ordered by rank.
func (c *Catalog) PublicPlans(_ context.Context) ([]Plan, error) {
	var out []Plan
	for _, p := range c.plans {
		if p.Public {
			out = append(out, p.clone())
		}
	}
	SortByRank(out)
	return out, nil
}

// Plans returns every plan ordered by rank.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.clone())
	}
	SortByRank(out)
	return out
}

// SortByRank orders plans by rank, then slug.
func SortByRank(plans []Plan) {
	slices.SortFunc(plans, func(a, b Plan) int {
		return cmp.Or(cmp.Compare(a.Rank, b.Rank), cmp.Compare(a.Slug, b.Slug))
	})
}
