package models

import (
	"testing"
	"time"
)

func TestBudgetDistinguishesUnsetFromZero(t *testing.T) {
	unset := &DiscoveryRequest{}
	if d, ok := unset.Budget(); ok || d != 0 {
		t.Errorf("unset budget = (%v, %v), want (0, false)", d, ok)
	}

	zero := 0
	explicit := &DiscoveryRequest{MaxExecutionTime: &zero}
	if d, ok := explicit.Budget(); !ok || d != 0 {
		t.Errorf("explicit zero budget = (%v, %v), want (0, true)", d, ok)
	}

	thirty := 30
	set := &DiscoveryRequest{MaxExecutionTime: &thirty}
	if d, ok := set.Budget(); !ok || d != 30*time.Second {
		t.Errorf("budget = (%v, %v), want (30s, true)", d, ok)
	}
}

func TestRequestForCarriesBatchSettings(t *testing.T) {
	limit := 45
	batch := &BatchDiscoveryRequest{
		Companies:        []CompanyTarget{{Name: "Acme", Website: "https://acme.com"}},
		Preferences:      UserPreferences{Skills: []string{"go"}},
		MaxExecutionTime: &limit,
	}

	req := batch.RequestFor(batch.Companies[0])

	if req.CompanyName != "Acme" || req.CompanyWebsite != "https://acme.com" {
		t.Errorf("target not carried: %+v", req)
	}
	if d, ok := req.Budget(); !ok || d != 45*time.Second {
		t.Errorf("batch budget not carried: (%v, %v)", d, ok)
	}
}
