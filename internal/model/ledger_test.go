package model

import "testing"

func TestCategoryPatch_Apply_Icon(t *testing.T) {
	icon := func(s string) *string { return &s }

	tests := []struct {
		name  string
		patch CategoryPatch
		want  *string
	}{
		{name: "nil keeps current", patch: CategoryPatch{}, want: icon("🍔")},
		{name: "value replaces", patch: CategoryPatch{Icon: icon("🍣")}, want: icon("🍣")},
		{name: "empty clears", patch: CategoryPatch{Icon: icon("")}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Category{Name: "Food", Type: PolarityExpense, Icon: icon("🍔")}
			tt.patch.Apply(&c)

			switch {
			case tt.want == nil && c.Icon != nil:
				t.Errorf("Icon = %q, want nil", *c.Icon)
			case tt.want != nil && (c.Icon == nil || *c.Icon != *tt.want):
				t.Errorf("Icon = %v, want %q", c.Icon, *tt.want)
			}
		})
	}
}
