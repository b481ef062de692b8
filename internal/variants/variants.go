// Package variants expands product attribute axes into sellable combinations.
package variants

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"storemaster/internal/apperror"
)

// Axis is a named product attribute and its ordered allowed values.
type Axis struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Attributes maps an axis name to the value chosen for one combination.
type Attributes map[string]string

// Validate rejects axis lists that cannot be expanded. A nil Values slice is
// treated as missing; an empty one is legal and yields no combinations.
func Validate(axes []Axis) error {
	seen := make(map[string]struct{}, len(axes))
	for i, axis := range axes {
		name := strings.TrimSpace(axis.Name)
		if name == "" {
			return apperror.Validation("variant %d: name is required", i)
		}
		if axis.Values == nil {
			return apperror.Validation("variant %q: values are required", name)
		}
		if _, dup := seen[name]; dup {
			return apperror.Validation("variant %q is listed more than once", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Combine returns the Cartesian product of axes. The first axis varies
// slowest and the last fastest. No axes yield a single empty combination;
// an axis with no values yields none.
func Combine(axes []Axis) []Attributes {
	combos := []Attributes{{}}
	for _, axis := range axes {
		next := make([]Attributes, 0, len(combos)*len(axis.Values))
		for _, prefix := range combos {
			for _, value := range axis.Values {
				attrs := make(Attributes, len(prefix)+1)
				for k, v := range prefix {
					attrs[k] = v
				}
				attrs[axis.Name] = value
				next = append(next, attrs)
			}
		}
		combos = next
	}
	return combos
}

// Count is the number of combinations Combine would return.
func Count(axes []Axis) int {
	n := 1
	for _, axis := range axes {
		n *= len(axis.Values)
	}
	return n
}

// BuildSKU derives a SKU from the product title, owning store, the
// combination's ordinal and a timestamp.
func BuildSKU(title, storeID string, index int, ts time.Time) string {
	return fmt.Sprintf("%s-%s-%d-%d", slug.Make(title), storeID, index, ts.UnixMilli())
}
