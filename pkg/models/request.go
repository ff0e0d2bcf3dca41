package models

import "time"

// DiscoveryRequest asks the orchestrator to run the full discovery pipeline
// for a single company.
type DiscoveryRequest struct {
	CompanyName          string          `json:"company_name" validate:"required,min=1,max=200"`
	CompanyWebsite       string          `json:"company_website" validate:"required,url"`
	Preferences          UserPreferences `json:"preferences" validate:"required"`
	MaxExecutionTime     *int            `json:"max_execution_time,omitempty" validate:"omitempty,gte=0,lte=600"`
	IncludeAIAnalysis    bool            `json:"include_ai_analysis,omitempty"`
	MaxPagesPerSite      int             `json:"max_pages_per_site,omitempty" validate:"gte=0,lte=50"`
	UseBrowserAutomation bool            `json:"use_browser_automation,omitempty"`
}

// Budget returns the wall-clock budget for the request and whether one was
// set. An explicit zero counts as set: the caller gets a budget that is
// already exhausted. Unset means the configured default applies.
func (r *DiscoveryRequest) Budget() (time.Duration, bool) {
	if r.MaxExecutionTime == nil {
		return 0, false
	}
	return time.Duration(*r.MaxExecutionTime) * time.Second, true
}

// CompanyTarget identifies one company in a batch request.
type CompanyTarget struct {
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Website string `json:"website" validate:"required,url"`
}

// BatchDiscoveryRequest runs the pipeline across multiple companies with a
// shared preference set and a concurrency cap.
type BatchDiscoveryRequest struct {
	Companies            []CompanyTarget `json:"companies" validate:"required,min=1,max=50,dive"`
	Preferences          UserPreferences `json:"preferences" validate:"required"`
	MaxConcurrent        int             `json:"max_concurrent,omitempty" validate:"gte=0,lte=20"`
	MaxExecutionTime     *int            `json:"max_execution_time,omitempty" validate:"omitempty,gte=0,lte=600"`
	IncludeAIAnalysis    bool            `json:"include_ai_analysis,omitempty"`
	MaxPagesPerSite      int             `json:"max_pages_per_site,omitempty" validate:"gte=0,lte=50"`
	UseBrowserAutomation bool            `json:"use_browser_automation,omitempty"`
	CallbackURL          string          `json:"callback_url,omitempty" validate:"omitempty,url"`
}

// RequestFor builds the per-company request for one target in the batch.
func (b *BatchDiscoveryRequest) RequestFor(target CompanyTarget) *DiscoveryRequest {
	return &DiscoveryRequest{
		CompanyName:          target.Name,
		CompanyWebsite:       target.Website,
		Preferences:          b.Preferences,
		MaxExecutionTime:     b.MaxExecutionTime,
		IncludeAIAnalysis:    b.IncludeAIAnalysis,
		MaxPagesPerSite:      b.MaxPagesPerSite,
		UseBrowserAutomation: b.UseBrowserAutomation,
	}
}
