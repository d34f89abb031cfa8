package registry

import (
	"errors"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default registry failed validation: %v", err)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		reg  *Registry
	}{
		{
			name: "no signatures",
			reg:  &Registry{},
		},
		{
			name: "empty signature name",
			reg: &Registry{Signatures: []TypeSignature{
				{Name: "", PrimaryKeywords: []string{"x"}, ConfidenceThreshold: 0.5},
			}},
		},
		{
			name: "no primary keywords",
			reg: &Registry{Signatures: []TypeSignature{
				{Name: "A", ConfidenceThreshold: 0.5},
			}},
		},
		{
			name: "threshold out of range",
			reg: &Registry{Signatures: []TypeSignature{
				{Name: "A", PrimaryKeywords: []string{"x"}, ConfidenceThreshold: 1.5},
			}},
		},
		{
			name: "duplicate signature",
			reg: &Registry{Signatures: []TypeSignature{
				{Name: "A", PrimaryKeywords: []string{"x"}, ConfidenceThreshold: 0.5},
				{Name: "A", PrimaryKeywords: []string{"y"}, ConfidenceThreshold: 0.5},
			}},
		},
		{
			name: "checklist without required types",
			reg: &Registry{
				Signatures: []TypeSignature{
					{Name: "A", PrimaryKeywords: []string{"x"}, ConfidenceThreshold: 0.5},
				},
				Checklists: []ProcessChecklist{{Name: "P"}},
			},
		},
		{
			name: "checklist duplicate type",
			reg: &Registry{
				Signatures: []TypeSignature{
					{Name: "A", PrimaryKeywords: []string{"x"}, ConfidenceThreshold: 0.5},
				},
				Checklists: []ProcessChecklist{{Name: "P", RequiredTypes: []string{"A", "A"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrInvalidRegistry) {
				t.Errorf("expected ErrInvalidRegistry, got %v", err)
			}
		})
	}
}

func TestChecklistLookup(t *testing.T) {
	reg := Default()

	cl, ok := reg.Checklist("Company Incorporation")
	if !ok {
		t.Fatal("Company Incorporation checklist not found")
	}
	if len(cl.RequiredTypes) != 5 {
		t.Errorf("expected 5 required types, got %d", len(cl.RequiredTypes))
	}

	if _, ok := reg.Checklist("Nonexistent Process"); ok {
		t.Error("lookup of unknown process should fail")
	}
}
