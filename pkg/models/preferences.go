package models

// ExperienceLevel buckets a candidate's seniority for matching purposes.
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
	ExperienceLead   ExperienceLevel = "lead"
)

// JobType represents the working arrangement a candidate will accept
type JobType string

const (
	JobTypeRemote   JobType = "remote"
	JobTypeHybrid   JobType = "hybrid"
	JobTypeOnsite   JobType = "onsite"
	JobTypeContract JobType = "contract"
	JobTypeFullTime JobType = "full-time"
	JobTypePartTime JobType = "part-time"
	JobTypeIntern   JobType = "intern"
)

// UserPreferences describes what the candidate is looking for. It drives both
// the matching dimensions and the score threshold applied to results.
type UserPreferences struct {
	Skills            []string        `json:"skills" validate:"required,min=1"`
	Locations         []string        `json:"locations,omitempty"`
	ExperienceYears   int             `json:"experience_years,omitempty" validate:"gte=0,lte=60"`
	ExperienceLevel   ExperienceLevel `json:"experience_level,omitempty" validate:"omitempty,oneof=entry mid senior lead"`
	DesiredRoles      []string        `json:"desired_roles,omitempty"`
	JobTypes          []JobType       `json:"job_types,omitempty" validate:"omitempty,dive,oneof=remote hybrid onsite contract full-time part-time intern"`
	SalaryMin         *int            `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax         *int            `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
	SalaryCurrency    string          `json:"salary_currency,omitempty"`
	MinimumMatchScore float64         `json:"minimum_match_score,omitempty" validate:"gte=0,lte=1"`
}

// AcceptsRemote reports whether the candidate accepts fully remote roles,
// either via job types or an explicit "remote" location entry.
func (p *UserPreferences) AcceptsRemote() bool {
	for _, t := range p.JobTypes {
		if t == JobTypeRemote {
			return true
		}
	}
	for _, loc := range p.Locations {
		if normalizeLocation(loc) == "remote" {
			return true
		}
	}
	return false
}

// HasSalaryRange reports whether the candidate specified any salary bound.
func (p *UserPreferences) HasSalaryRange() bool {
	return p.SalaryMin != nil || p.SalaryMax != nil
}

// ScoreThreshold converts the [0,1] minimum match score to the 0-100 scale
// used by match scores.
func (p *UserPreferences) ScoreThreshold() float64 {
	return p.MinimumMatchScore * 100
}
