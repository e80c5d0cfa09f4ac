package model

import (
	"strings"
	"time"
)

// Participant is a registered hackathon participant.
type Participant struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns "First Last", falling back to the email when both are empty.
func (p Participant) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Email
	}
	return name
}

// TeamMember wraps a participant with team-scoped attributes.
type TeamMember struct {
	Participant       Participant `json:"participant"`
	Role              string      `json:"role,omitempty"`
	Skills            string      `json:"skills,omitempty"`
	MotivationScore   *float64    `json:"motivation_score,omitempty"`
	YearsOfExperience *float64    `json:"years_of_experience,omitempty"`
}

// SkillList splits the free-text skills string on commas, semicolons and newlines.
func (m TeamMember) SkillList() []string {
	fields := strings.FieldsFunc(m.Skills, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	skills := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// Team is one generated team of a hackathon.
type Team struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Score        *float64     `json:"score,omitempty"`
	GenerationID string       `json:"generation_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Members      []TeamMember `json:"members"`
}

// Clone returns a deep copy of the team.
func (t Team) Clone() Team {
	out := t
	if t.Score != nil {
		s := *t.Score
		out.Score = &s
	}
	out.Members = make([]TeamMember, len(t.Members))
	for i, m := range t.Members {
		out.Members[i] = m.clone()
	}
	return out
}

func (m TeamMember) clone() TeamMember {
	out := m
	if m.MotivationScore != nil {
		v := *m.MotivationScore
		out.MotivationScore = &v
	}
	if m.YearsOfExperience != nil {
		v := *m.YearsOfExperience
		out.YearsOfExperience = &v
	}
	return out
}

// CloneTeams deep-copies a team list.
func CloneTeams(teams []Team) []Team {
	out := make([]Team, len(teams))
	for i := range teams {
		out[i] = teams[i].Clone()
	}
	return out
}
