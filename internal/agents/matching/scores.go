package matching

import (
	"regexp"
	"strings"

	"jobscout/pkg/models"
)

// seniority bands used by the experience dimension
const (
	bandUnknown = -1
	bandEntry   = 0
	bandMid     = 1
	bandSenior  = 2
	bandLead    = 3
)

var yearsRe = regexp.MustCompile(`(\d+)\s*\+?\s*(?:-\s*\d+\s*)?years?`)

var remoteMarkers = []string{"remote", "anywhere", "work from home", "distributed"}

// scoreSkills scores preference-skill coverage of the job text. Each present
// skill contributes 0.85 plus a frequency bonus; a job with zero overlapping
// skills scores 0, and missing data scores neutral.
func scoreSkills(job *models.JobListing, prefs *models.UserPreferences, neutral float64) float64 {
	if len(prefs.Skills) == 0 {
		return neutral
	}

	text := strings.ToLower(job.Title + " " + job.Description + " " + job.SourceExcerpt)
	if strings.TrimSpace(text) == "" {
		return neutral
	}

	var total float64
	for _, skill := range prefs.Skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s == "" {
			continue
		}
		occ := strings.Count(text, s)
		if occ == 0 {
			continue
		}
		bonus := float64(occ - 1)
		if bonus > 2 {
			bonus = 2
		}
		total += 0.85 + 0.15*bonus/2
	}

	return clampScore(100 * total / float64(len(prefs.Skills)))
}

// scoreLocation compares the job location against preferred locations with
// remote handling: remote jobs score full for remote-accepting candidates,
// exact or containing matches score full, regional token overlap scores half.
func scoreLocation(job *models.JobListing, prefs *models.UserPreferences, neutral float64) float64 {
	jobLoc := strings.ToLower(strings.Join(strings.Fields(job.Location), " "))
	if jobLoc == "" {
		return neutral
	}

	isRemote := containsAny(jobLoc, remoteMarkers)
	if isRemote && prefs.AcceptsRemote() {
		return 100
	}

	if len(prefs.Locations) == 0 {
		return neutral
	}

	jobTokens := locationTokens(jobLoc)
	partial := false
	for _, pref := range prefs.Locations {
		p := strings.ToLower(strings.Join(strings.Fields(pref), " "))
		if p == "" || p == "remote" {
			continue
		}
		if strings.Contains(jobLoc, p) || strings.Contains(p, jobLoc) {
			return 100
		}
		for tok := range locationTokens(p) {
			if _, ok := jobTokens[tok]; ok {
				partial = true
			}
		}
	}

	if partial {
		return 50
	}
	if isRemote {
		// Remote role the candidate did not opt into still beats a wrong city
		return 25
	}
	return 0
}

// scoreExperience compares the seniority band implied by the job against the
// candidate's band. Unknown job seniority scores neutral.
func scoreExperience(job *models.JobListing, prefs *models.UserPreferences, neutral float64) float64 {
	jobBand := jobSeniorityBand(job)
	if jobBand == bandUnknown {
		return neutral
	}

	prefBand := candidateBand(prefs)

	diff := jobBand - prefBand
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 100
	case 1:
		return 70
	case 2:
		return 40
	default:
		return 15
	}
}

// scoreSalary checks range overlap. Missing data on either side scores
// neutral; a job range strictly below the candidate's minimum scores 0.
func scoreSalary(job *models.JobListing, prefs *models.UserPreferences, neutral float64) float64 {
	if job.Salary == nil || (job.Salary.Min == 0 && job.Salary.Max == 0) {
		return neutral
	}
	if !prefs.HasSalaryRange() {
		return neutral
	}

	jobMin, jobMax := job.Salary.Min, job.Salary.Max
	if jobMin == 0 {
		jobMin = jobMax
	}
	if jobMax == 0 {
		jobMax = jobMin
	}

	prefMin := 0
	if prefs.SalaryMin != nil {
		prefMin = *prefs.SalaryMin
	}

	if jobMax < prefMin {
		return 0
	}
	if prefs.SalaryMax != nil && jobMin > *prefs.SalaryMax {
		// Above the candidate's stated range: not disqualifying
		return 60
	}
	return 100
}

// scoreRole scores title similarity against desired roles: full containment
// wins outright, otherwise the best token-overlap ratio decides.
func scoreRole(job *models.JobListing, prefs *models.UserPreferences, neutral float64) float64 {
	if len(prefs.DesiredRoles) == 0 {
		return neutral
	}

	title := strings.ToLower(strings.Join(strings.Fields(job.Title), " "))
	if title == "" {
		return neutral
	}
	titleTokens := tokenSet(title)

	var best float64
	for _, role := range prefs.DesiredRoles {
		r := strings.ToLower(strings.Join(strings.Fields(role), " "))
		if r == "" {
			continue
		}
		if strings.Contains(title, r) || strings.Contains(r, title) {
			return 100
		}

		roleTokens := tokenSet(r)
		if len(roleTokens) == 0 {
			continue
		}
		matched := 0
		for tok := range roleTokens {
			if _, ok := titleTokens[tok]; ok {
				matched++
			}
		}
		if ratio := float64(matched) / float64(len(roleTokens)); ratio > best {
			best = ratio
		}
	}

	return clampScore(100 * best)
}

func jobSeniorityBand(job *models.JobListing) int {
	text := strings.ToLower(job.Title + " " + job.Description)

	switch {
	case containsAny(strings.ToLower(job.Title), []string{"principal", "staff", "head of", "director", "vp "}):
		return bandLead
	case containsAny(strings.ToLower(job.Title), []string{"lead "}) || strings.HasSuffix(strings.ToLower(job.Title), " lead"):
		return bandLead
	case containsAny(strings.ToLower(job.Title), []string{"senior", "sr.", "sr "}):
		return bandSenior
	case containsAny(strings.ToLower(job.Title), []string{"junior", "jr.", "jr ", "entry", "graduate", "intern"}):
		return bandEntry
	case containsAny(strings.ToLower(job.Title), []string{"mid-level", "intermediate"}):
		return bandMid
	}

	if m := yearsRe.FindStringSubmatch(text); m != nil {
		return yearsToBand(atoiSafe(m[1]))
	}
	return bandUnknown
}

func candidateBand(prefs *models.UserPreferences) int {
	switch prefs.ExperienceLevel {
	case models.ExperienceEntry:
		return bandEntry
	case models.ExperienceMid:
		return bandMid
	case models.ExperienceSenior:
		return bandSenior
	case models.ExperienceLead:
		return bandLead
	}
	return yearsToBand(prefs.ExperienceYears)
}

func yearsToBand(years int) int {
	switch {
	case years <= 2:
		return bandEntry
	case years <= 5:
		return bandMid
	case years <= 8:
		return bandSenior
	default:
		return bandLead
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var locationStopWords = map[string]struct{}{
	"the": {}, "and": {}, "area": {}, "greater": {}, "city": {}, "metro": {},
}

func locationTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '/' || r == '-' || r == '(' || r == ')'
	}) {
		tok = strings.TrimSpace(tok)
		if len(tok) <= 2 {
			continue
		}
		if _, stop := locationStopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

var titleStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "of": {},
}

func tokenSet(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, "()[],.-/")
		if len(tok) < 2 {
			continue
		}
		if _, stop := titleStopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
