package matching

import (
	"testing"

	"jobscout/pkg/models"
)

const neutral = 50.0

func intPtr(v int) *int { return &v }

func TestScoreSkillsZeroOverlap(t *testing.T) {
	job := models.JobListing{
		Title:       "Accountant",
		CompanyName: "Acme",
		Description: "Bookkeeping and financial reporting.",
	}
	prefs := models.UserPreferences{Skills: []string{"go", "kubernetes"}}

	if got := scoreSkills(&job, &prefs, neutral); got != 0 {
		t.Errorf("scoreSkills with zero overlap = %v, want 0", got)
	}
}

func TestScoreSkillsMissingDataIsNeutral(t *testing.T) {
	job := models.JobListing{Title: "", Description: ""}
	prefs := models.UserPreferences{Skills: []string{"go"}}

	if got := scoreSkills(&job, &prefs, neutral); got != neutral {
		t.Errorf("scoreSkills with empty job text = %v, want %v", got, neutral)
	}

	noSkills := models.UserPreferences{}
	full := models.JobListing{Title: "Go Engineer", Description: "Go services"}
	if got := scoreSkills(&full, &noSkills, neutral); got != neutral {
		t.Errorf("scoreSkills with no preference skills = %v, want %v", got, neutral)
	}
}

func TestScoreSkillsFrequencyBonus(t *testing.T) {
	once := models.JobListing{Title: "Engineer", Description: "go"}
	many := models.JobListing{Title: "Engineer", Description: "go go go go"}
	prefs := models.UserPreferences{Skills: []string{"go"}}

	lo := scoreSkills(&once, &prefs, neutral)
	hi := scoreSkills(&many, &prefs, neutral)

	if lo != 85 {
		t.Errorf("single occurrence = %v, want 85", lo)
	}
	if hi != 100 {
		t.Errorf("repeated occurrences = %v, want 100 (capped bonus)", hi)
	}
}

func TestScoreSkillsBounded(t *testing.T) {
	job := models.JobListing{
		Title:       "Go Engineer",
		Description: "go go go kubernetes kubernetes kubernetes docker docker docker",
	}
	prefs := models.UserPreferences{Skills: []string{"go", "kubernetes", "docker"}}

	got := scoreSkills(&job, &prefs, neutral)
	if got < 0 || got > 100 {
		t.Errorf("scoreSkills = %v, out of [0,100]", got)
	}
}

func TestScoreLocation(t *testing.T) {
	cases := []struct {
		name  string
		loc   string
		prefs models.UserPreferences
		want  float64
	}{
		{
			name:  "remote job, remote-accepting candidate",
			loc:   "Remote (EMEA)",
			prefs: models.UserPreferences{JobTypes: []models.JobType{models.JobTypeRemote}},
			want:  100,
		},
		{
			name:  "exact city match",
			loc:   "Berlin, Germany",
			prefs: models.UserPreferences{Locations: []string{"Berlin"}},
			want:  100,
		},
		{
			name:  "token overlap only",
			loc:   "Berlin Area, Germany",
			prefs: models.UserPreferences{Locations: []string{"Hamburg, Germany"}},
			want:  50,
		},
		{
			name:  "remote job without remote preference",
			loc:   "Remote",
			prefs: models.UserPreferences{Locations: []string{"Berlin"}},
			want:  25,
		},
		{
			name:  "no overlap",
			loc:   "Tokyo, Japan",
			prefs: models.UserPreferences{Locations: []string{"Berlin"}},
			want:  0,
		},
		{
			name:  "missing job location",
			loc:   "",
			prefs: models.UserPreferences{Locations: []string{"Berlin"}},
			want:  neutral,
		},
		{
			name:  "no location preferences",
			loc:   "Berlin",
			prefs: models.UserPreferences{},
			want:  neutral,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := models.JobListing{Location: tc.loc}
			if got := scoreLocation(&job, &tc.prefs, neutral); got != tc.want {
				t.Errorf("scoreLocation(%q) = %v, want %v", tc.loc, got, tc.want)
			}
		})
	}
}

func TestScoreExperienceBands(t *testing.T) {
	cases := []struct {
		name  string
		title string
		prefs models.UserPreferences
		want  float64
	}{
		{"exact band", "Senior Go Engineer", models.UserPreferences{ExperienceLevel: models.ExperienceSenior}, 100},
		{"one band apart", "Senior Go Engineer", models.UserPreferences{ExperienceLevel: models.ExperienceMid}, 70},
		{"two bands apart", "Senior Go Engineer", models.UserPreferences{ExperienceLevel: models.ExperienceEntry}, 40},
		{"three bands apart", "Principal Engineer", models.UserPreferences{ExperienceLevel: models.ExperienceEntry}, 15},
		{"unknown job seniority", "Software Engineer", models.UserPreferences{ExperienceLevel: models.ExperienceMid}, neutral},
		{"years fall back", "Senior Go Engineer", models.UserPreferences{ExperienceYears: 7}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := models.JobListing{Title: tc.title}
			if got := scoreExperience(&job, &tc.prefs, neutral); got != tc.want {
				t.Errorf("scoreExperience(%q) = %v, want %v", tc.title, got, tc.want)
			}
		})
	}
}

func TestScoreExperienceYearsInDescription(t *testing.T) {
	job := models.JobListing{
		Title:       "Software Engineer",
		Description: "We are looking for someone with 7+ years of backend experience.",
	}
	prefs := models.UserPreferences{ExperienceLevel: models.ExperienceSenior}

	if got := scoreExperience(&job, &prefs, neutral); got != 100 {
		t.Errorf("scoreExperience with years requirement = %v, want 100", got)
	}
}

func TestScoreSalary(t *testing.T) {
	cases := []struct {
		name   string
		salary *models.SalaryRange
		prefs  models.UserPreferences
		want   float64
	}{
		{
			name:   "overlapping range",
			salary: &models.SalaryRange{Min: 90000, Max: 120000},
			prefs:  models.UserPreferences{SalaryMin: intPtr(100000), SalaryMax: intPtr(140000)},
			want:   100,
		},
		{
			name:   "job pays below minimum",
			salary: &models.SalaryRange{Min: 40000, Max: 60000},
			prefs:  models.UserPreferences{SalaryMin: intPtr(100000)},
			want:   0,
		},
		{
			name:   "job pays above range",
			salary: &models.SalaryRange{Min: 200000, Max: 250000},
			prefs:  models.UserPreferences{SalaryMin: intPtr(80000), SalaryMax: intPtr(120000)},
			want:   60,
		},
		{
			name:   "no job salary",
			salary: nil,
			prefs:  models.UserPreferences{SalaryMin: intPtr(100000)},
			want:   neutral,
		},
		{
			name:   "no salary preference",
			salary: &models.SalaryRange{Min: 90000, Max: 120000},
			prefs:  models.UserPreferences{},
			want:   neutral,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := models.JobListing{Salary: tc.salary}
			if got := scoreSalary(&job, &tc.prefs, neutral); got != tc.want {
				t.Errorf("scoreSalary = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScoreRole(t *testing.T) {
	cases := []struct {
		name  string
		title string
		roles []string
		want  float64
	}{
		{"containment", "Senior Backend Engineer", []string{"backend engineer"}, 100},
		{"no roles", "Backend Engineer", nil, neutral},
		{"no overlap", "Accountant", []string{"backend engineer"}, 0},
		{"partial overlap", "Backend Developer", []string{"backend engineer"}, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := models.JobListing{Title: tc.title}
			prefs := models.UserPreferences{DesiredRoles: tc.roles}
			if got := scoreRole(&job, &prefs, neutral); got != tc.want {
				t.Errorf("scoreRole(%q) = %v, want %v", tc.title, got, tc.want)
			}
		})
	}
}

func TestAllDimensionsBounded(t *testing.T) {
	job := models.JobListing{
		Title:       "Senior Go Engineer",
		CompanyName: "Acme",
		Location:    "Remote",
		Description: "go go go kubernetes docker 5+ years",
		Salary:      &models.SalaryRange{Min: 100000, Max: 150000},
	}
	prefs := models.UserPreferences{
		Skills:          []string{"go", "kubernetes", "docker"},
		Locations:       []string{"Remote"},
		ExperienceLevel: models.ExperienceSenior,
		DesiredRoles:    []string{"Go Engineer"},
		SalaryMin:       intPtr(90000),
		JobTypes:        []models.JobType{models.JobTypeRemote},
	}

	scores := []float64{
		scoreSkills(&job, &prefs, neutral),
		scoreLocation(&job, &prefs, neutral),
		scoreExperience(&job, &prefs, neutral),
		scoreSalary(&job, &prefs, neutral),
		scoreRole(&job, &prefs, neutral),
	}
	for i, s := range scores {
		if s < 0 || s > 100 {
			t.Errorf("dimension %d scored %v, out of [0,100]", i, s)
		}
	}
}
