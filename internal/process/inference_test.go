package process

import (
	"reflect"
	"testing"

	"github.com/adgm-agent/backend/internal/registry"
)

func newInferencer(t *testing.T) *Inferencer {
	t.Helper()
	reg := registry.Default()
	if err := reg.Validate(); err != nil {
		t.Fatalf("registry validation: %v", err)
	}
	return New(reg)
}

func TestInferCompanyIncorporation(t *testing.T) {
	inf := newInferencer(t)

	detected := []string{
		"Articles of Association",
		"Memorandum of Association",
		"UBO Declaration",
		"Board Resolution",
	}

	if got := inf.InferProcess(detected); got != "Company Incorporation" {
		t.Errorf("InferProcess = %q, want Company Incorporation", got)
	}
}

func TestInferUnknownWhenNoChecklistMatches(t *testing.T) {
	inf := newInferencer(t)

	for _, detected := range [][]string{
		nil,
		{},
		{"Non-Disclosure Agreement", "Power of Attorney"},
	} {
		if got := inf.InferProcess(detected); got != "" {
			t.Errorf("InferProcess(%v) = %q, want unknown", detected, got)
		}
		if missing := inf.Missing("", detected); missing != nil {
			t.Errorf("Missing with unknown process = %v, want nil", missing)
		}
	}
}

func TestMissingPreservesChecklistOrder(t *testing.T) {
	inf := newInferencer(t)

	detected := []string{
		"Articles of Association",
		"Memorandum of Association",
		"UBO Declaration",
		"Board Resolution",
	}

	missing := inf.Missing("Company Incorporation", detected)
	want := []string{"Incorporation Application", "Register of Members and Directors"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("Missing = %v, want %v", missing, want)
	}

	if got := inf.RequiredCount("Company Incorporation"); got != 5 {
		t.Errorf("RequiredCount = %d, want 5", got)
	}
}

func TestMissingIsChecklistSubset(t *testing.T) {
	inf := newInferencer(t)
	reg := registry.Default()

	cl, _ := reg.Checklist("Commercial Licensing")
	required := make(map[string]bool)
	for _, req := range cl.RequiredTypes {
		required[req] = true
	}

	missing := inf.Missing("Commercial Licensing", []string{"Lease Agreement", "Employment Contract"})
	for _, m := range missing {
		if !required[m] {
			t.Errorf("Missing returned %q which is not in the checklist", m)
		}
	}
}

func TestRequiredCountUnknownProcess(t *testing.T) {
	inf := newInferencer(t)

	if got := inf.RequiredCount(""); got != 0 {
		t.Errorf("RequiredCount(unknown) = %d, want 0", got)
	}
}
