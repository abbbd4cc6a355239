package redteam

import (
	"strings"
	"testing"

	"conclave/pkg/council"
)

func TestPromptComposesBaseAndFlavor(t *testing.T) {
	tests := []struct {
		flavor council.Flavor
		marker string
	}{
		{council.FlavorLogical, "reasoning validity"},
		{council.FlavorFeasibility, "implementation reality"},
		{council.FlavorEthical, "values and consequences"},
		{council.FlavorSteelman, "opposition's strongest case"},
	}

	for _, tt := range tests {
		t.Run(string(tt.flavor), func(t *testing.T) {
			p := Prompt(tt.flavor)
			if !strings.Contains(p, "Red Team member of a deliberative council") {
				t.Error("prompt missing base frame")
			}
			if !strings.Contains(p, tt.marker) {
				t.Errorf("prompt missing flavor marker %q", tt.marker)
			}
		})
	}
}

func TestPromptUnknownFlavorDefaultsToLogical(t *testing.T) {
	p := Prompt(council.Flavor("made-up"))
	if !strings.Contains(p, "reasoning validity") {
		t.Error("unknown flavor should fall back to the logical attack vector")
	}
}
