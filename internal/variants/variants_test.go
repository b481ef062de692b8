package variants_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storemaster/internal/apperror"
	"storemaster/internal/variants"
)

func TestCombine_ColorBySize(t *testing.T) {
	axes := []variants.Axis{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S", "M"}},
	}

	combos := variants.Combine(axes)

	expected := []variants.Attributes{
		{"Color": "Red", "Size": "S"},
		{"Color": "Red", "Size": "M"},
		{"Color": "Blue", "Size": "S"},
		{"Color": "Blue", "Size": "M"},
	}
	assert.Equal(t, expected, combos)
}

func TestCombine_NoAxesYieldsSingleEmptyCombination(t *testing.T) {
	combos := variants.Combine(nil)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestCombine_EmptyAxisAbsorbs(t *testing.T) {
	axes := []variants.Axis{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{}},
		{Name: "Material", Values: []string{"Cotton"}},
	}
	assert.Empty(t, variants.Combine(axes))
	assert.Equal(t, 0, variants.Count(axes))
}

func TestCombine_CountAndShape(t *testing.T) {
	cases := [][]int{
		{},
		{1},
		{3},
		{2, 3},
		{3, 1, 4},
		{2, 2, 2, 2},
		{5, 0, 2},
	}

	for _, sizes := range cases {
		t.Run(fmt.Sprint(sizes), func(t *testing.T) {
			axes := make([]variants.Axis, len(sizes))
			want := 1
			for i, k := range sizes {
				values := make([]string, k)
				for j := range values {
					values[j] = fmt.Sprintf("v%d", j)
				}
				axes[i] = variants.Axis{Name: fmt.Sprintf("axis%d", i), Values: values}
				want *= k
			}

			combos := variants.Combine(axes)
			assert.Len(t, combos, want)
			assert.Equal(t, want, variants.Count(axes))

			seen := make(map[string]struct{}, len(combos))
			for _, c := range combos {
				assert.Len(t, c, len(axes))
				for _, axis := range axes {
					assert.Contains(t, c, axis.Name)
				}
				key := fmt.Sprint(c)
				_, dup := seen[key]
				assert.False(t, dup, "duplicate combination %s", key)
				seen[key] = struct{}{}
			}
		})
	}
}

func TestCombine_DoesNotShareMaps(t *testing.T) {
	axes := []variants.Axis{
		{Name: "Color", Values: []string{"Red", "Blue"}},
		{Name: "Size", Values: []string{"S"}},
	}
	combos := variants.Combine(axes)
	combos[0]["Color"] = "Green"
	assert.Equal(t, "Blue", combos[1]["Color"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		axes    []variants.Axis
		wantErr string
	}{
		{name: "valid", axes: []variants.Axis{{Name: "Color", Values: []string{"Red"}}}},
		{name: "empty values allowed", axes: []variants.Axis{{Name: "Color", Values: []string{}}}},
		{name: "no axes", axes: nil},
		{name: "missing name", axes: []variants.Axis{{Values: []string{"Red"}}}, wantErr: "name is required"},
		{name: "blank name", axes: []variants.Axis{{Name: "  ", Values: []string{"Red"}}}, wantErr: "name is required"},
		{name: "missing values", axes: []variants.Axis{{Name: "Color"}}, wantErr: "values are required"},
		{
			name: "duplicate name",
			axes: []variants.Axis{
				{Name: "Color", Values: []string{"Red"}},
				{Name: "Color", Values: []string{"Blue"}},
			},
			wantErr: "more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := variants.Validate(tt.axes)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildSKU(t *testing.T) {
	ts := time.UnixMilli(1700000000123)

	sku := variants.BuildSKU("Summer Linen Shirt", "store-1", 2, ts)

	assert.Equal(t, "summer-linen-shirt-store-1-2-1700000000123", sku)
	assert.Equal(t, strings.ToLower(sku), sku)
}
