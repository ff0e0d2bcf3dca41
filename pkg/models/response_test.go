package models

import "testing"

func TestBatchSummarize(t *testing.T) {
	batch := BatchDiscoveryResult{
		Results: []DiscoveryResult{
			{Success: true},
			{Success: true, Partial: true},
			{Partial: true},
			{},
		},
	}
	batch.Summarize()

	if batch.Summary.Total != 4 {
		t.Errorf("Total = %d, want 4", batch.Summary.Total)
	}
	if batch.Summary.Succeeded != 1 {
		t.Errorf("Succeeded = %d, want 1", batch.Summary.Succeeded)
	}
	if batch.Summary.Partial != 2 {
		t.Errorf("Partial = %d, want 2", batch.Summary.Partial)
	}
	if batch.Summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", batch.Summary.Failed)
	}
}

func TestAddError(t *testing.T) {
	var r DiscoveryResult
	r.AddError("discovery", "DISCOVERY_NOT_FOUND", "no career page")

	if len(r.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(r.Errors))
	}
	if r.Errors[0].Stage != "discovery" || r.Errors[0].Code != "DISCOVERY_NOT_FOUND" {
		t.Errorf("unexpected error entry: %+v", r.Errors[0])
	}
}
