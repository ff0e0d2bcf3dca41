package models

// Recommendation labels a match score band
type Recommendation string

const (
	RecommendationHighly         Recommendation = "Highly Recommended"
	RecommendationRecommended    Recommendation = "Recommended"
	RecommendationPossible       Recommendation = "Possible Match"
	RecommendationNotRecommended Recommendation = "Not Recommended"
)

// ScoreBands holds the lower edges of the recommendation bands on the 0-100
// scale. A score equal to a band edge falls into that band.
type ScoreBands struct {
	Highly      float64 `json:"highly" yaml:"highly"`
	Recommended float64 `json:"recommended" yaml:"recommended"`
	Possible    float64 `json:"possible" yaml:"possible"`
}

// DefaultScoreBands returns the standard band edges.
func DefaultScoreBands() ScoreBands {
	return ScoreBands{Highly: 80, Recommended: 60, Possible: 40}
}

// RecommendationFor maps a score to its band label.
func (b ScoreBands) RecommendationFor(score float64) Recommendation {
	switch {
	case score >= b.Highly:
		return RecommendationHighly
	case score >= b.Recommended:
		return RecommendationRecommended
	case score >= b.Possible:
		return RecommendationPossible
	default:
		return RecommendationNotRecommended
	}
}

// ScoreWeights holds the relative weight of each matching dimension. Weights
// are normalized before use, so they need not sum to one.
type ScoreWeights struct {
	Skills     float64 `json:"skills" yaml:"skills"`
	Role       float64 `json:"role" yaml:"role"`
	Experience float64 `json:"experience" yaml:"experience"`
	Location   float64 `json:"location" yaml:"location"`
	Salary     float64 `json:"salary" yaml:"salary"`
}

// DefaultScoreWeights returns the standard dimension weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Skills: 0.30, Role: 0.25, Experience: 0.20, Location: 0.15, Salary: 0.10}
}

// Sum returns the total of all weights.
func (w ScoreWeights) Sum() float64 {
	return w.Skills + w.Role + w.Experience + w.Location + w.Salary
}

// DimensionScores holds the per-dimension match scores, each on a 0-100 scale.
type DimensionScores struct {
	Skills     float64 `json:"skills_match"`
	Location   float64 `json:"location_match"`
	Experience float64 `json:"experience_match"`
	Salary     float64 `json:"salary_match"`
	Role       float64 `json:"role_match"`
}

// Weighted computes the overall score as the weighted average of the
// dimensions using normalized weights.
func (d DimensionScores) Weighted(w ScoreWeights) float64 {
	total := w.Sum()
	if total <= 0 {
		w = DefaultScoreWeights()
		total = w.Sum()
	}
	score := (d.Skills*w.Skills + d.Role*w.Role + d.Experience*w.Experience +
		d.Location*w.Location + d.Salary*w.Salary) / total
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// MatchResult pairs a listing with its computed relevance to the candidate.
type MatchResult struct {
	Job            JobListing      `json:"job"`
	MatchScore     float64         `json:"match_score"`
	Dimensions     DimensionScores `json:"dimensions"`
	Reasoning      string          `json:"reasoning,omitempty"`
	Recommendation Recommendation  `json:"recommendation"`
}
