package quota

import (
	"fmt"

	"github.com/google/uuid"
)

// Category is a billing bucket. Plans define one monthly limit per category.
type Category string

const (
	CategoryConversion Category = "conversion"
	CategoryMerge      Category = "merge"
	CategoryCompress   Category = "compress"
	CategoryConvert    Category = "convert"
	CategorySecurity   Category = "security"
	CategoryWatermark  Category = "watermark"
	CategoryAI         Category = "ai"
)

// Limit constants
const (
	// Unlimited never denies; usage is still counted.
	Unlimited int64 = -1
	// Disabled means the category is not available on the plan.
	Disabled int64 = 0
)

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

func (c Category) String() string { return string(c) }

// ParseCategory converts a raw string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Key identifies a single usage counter.
type Key struct {
	AccountID uuid.UUID
	Period    string
	Category  Category
}

// String renders the key as "quota:<account>:<period>:<category>".
func (k Key) String() string {
	return "quota:" + k.AccountID.String() + ":" + k.Period + ":" + string(k.Category)
}

// Decision is the outcome of a charge attempt.
// When Allowed is true the counter has already been incremented.
type Decision struct {
	Allowed bool  `json:"allowed"`
	Used    int64 `json:"used"`
	Limit   int64 `json:"limit"`
	Key     Key   `json:"-"`
}

// UsageInfo contains the current usage and limit for a category.
type UsageInfo struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}
