package entitlement

import (
	"fmt"
	"maps"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// Plan is a named quota table.
type Plan struct {
	Slug        string                   `yaml:"slug" json:"slug"`
	Name        string                   `yaml:"name" json:"name"`
	Description string                   `yaml:"description" json:"description,omitempty"`
	Public      bool                     `yaml:"public" json:"public"`
	Rank        int                      `yaml:"rank" json:"rank"`
	TrialDays   int                      `yaml:"trial_days" json:"trial_days,omitempty"`
	PriceCents  int64                    `yaml:"price_cents" json:"price_cents"`
	Quotas      map[quota.Category]int64 `yaml:"quotas" json:"quotas"`
}

// Limit returns the monthly limit for c. Categories missing from the table are disabled.
func (p Plan) Limit(c quota.Category) int64 {
	if limit, ok := p.Quotas[c]; ok {
		return limit
	}
	return quota.Disabled
}

// Free reports whether the plan costs nothing.
func (p Plan) Free() bool {
	return p.PriceCents == 0
}

// Allows reports whether p would admit one more use of c after used uses.
func (p Plan) Allows(c quota.Category, used int64) bool {
	limit := p.Limit(c)
	return limit == quota.Unlimited || limit > used
}

// Validate checks the plan for unknown categories and out-of-range limits.
func (p Plan) Validate() error {
	if p.Slug == "" {
		return fmt.Errorf("%w: empty slug", ErrInvalidPlan)
	}
	if p.PriceCents < 0 || p.TrialDays < 0 {
		return fmt.Errorf("%w: %s: negative price or trial days", ErrInvalidPlan, p.Slug)
	}
	for c, limit := range p.Quotas {
		if !c.Valid() {
			return fmt.Errorf("%w: %s: unknown category %q", ErrInvalidPlan, p.Slug, c)
		}
		if limit < quota.Unlimited {
			return fmt.Errorf("%w: %s: limit %d for %s", ErrInvalidPlan, p.Slug, limit, c)
		}
	}
	return nil
}

func (p Plan) clone() Plan {
	p.Quotas = maps.Clone(p.Quotas)
	return p
}
