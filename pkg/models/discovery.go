package models

// CandidateLink is a same-origin link harvested from a company homepage,
// offered to the LLM for career page ranking.
type CandidateLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// CareerPageChoice is the ranked pick among candidate links
type CareerPageChoice struct {
	URL        string  `json:"url"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}
