package models

import "time"

// Known category values sent by the site's application form.
const (
	GoalPhysiqueTransformation = "physique_transformation"
	GoalStrengthPerformance    = "strength_performance"
	GoalEliteLifestyle         = "elite_lifestyle"

	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"

	CommitmentHigh     = "high"
	CommitmentModerate = "moderate"
)

var (
	Goals            = []string{GoalPhysiqueTransformation, GoalStrengthPerformance, GoalEliteLifestyle}
	ExperienceLevels = []string{ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced}
	CommitmentLevels = []string{CommitmentHigh, CommitmentModerate}
)

// Application is a stored coaching application. Records are append-only.
type Application struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Goal            string    `json:"goal"`
	ExperienceLevel string    `json:"experience_level"`
	CommitmentLevel string    `json:"commitment_level"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewApplication is a validated submission that has not been stored yet.
// The store assigns ID and CreatedAt.
type NewApplication struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Goal            string `json:"goal"`
	ExperienceLevel string `json:"experience_level"`
	CommitmentLevel string `json:"commitment_level"`
	Message         string `json:"message"`
}
