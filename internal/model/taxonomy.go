package model

import (
	"strings"
)

// Domain is the subject tag attached to a question
type Domain string

const (
	DomainCalculus              Domain = "calculus"
	DomainLinearAlgebra         Domain = "linear_algebra"
	DomainProbability           Domain = "probability"
	DomainStatistics            Domain = "statistics"
	DomainPhysicsMechanics      Domain = "physics_mechanics"
	DomainPhysicsElectricity    Domain = "physics_electricity"
	DomainPhysicsThermodynamics Domain = "physics_thermodynamics"
	DomainChemistry             Domain = "chemistry"
	DomainBiology               Domain = "biology"
	DomainComputerScience       Domain = "computer_science"
	DomainOther                 Domain = "other"
)

// Domains lists every domain in prompt order
var Domains = []Domain{
	DomainCalculus,
	DomainLinearAlgebra,
	DomainProbability,
	DomainStatistics,
	DomainPhysicsMechanics,
	DomainPhysicsElectricity,
	DomainPhysicsThermodynamics,
	DomainChemistry,
	DomainBiology,
	DomainComputerScience,
	DomainOther,
}

// ParseDomain maps classifier output onto the closed domain set.
// Anything unrecognized becomes DomainOther and ok is false.
func ParseDomain(label string) (d Domain, ok bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.Trim(s, "\"'`.*")
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)

	for _, known := range Domains {
		if s == string(known) {
			return known, true
		}
	}
	return DomainOther, false
}

// Difficulty is the target level of a generated question. Levels are ordered.
type Difficulty string

const (
	DifficultyHighSchool Difficulty = "high_school"
	DifficultyUndergrad  Difficulty = "undergrad"
	DifficultyGraduate   Difficulty = "graduate"
	DifficultyResearch   Difficulty = "research"
)

// Difficulties lists every level from easiest to hardest
var Difficulties = []Difficulty{
	DifficultyHighSchool,
	DifficultyUndergrad,
	DifficultyGraduate,
	DifficultyResearch,
}

var difficultyDescriptions = map[Difficulty]string{
	DifficultyHighSchool: "High school level: direct application of a single concept with straightforward arithmetic or algebra",
	DifficultyUndergrad:  "Undergraduate level: multi-step problems combining several concepts from the passage",
	DifficultyGraduate:   "Graduate level: problems requiring derivations, proofs of intermediate results or non-obvious techniques",
	DifficultyResearch:   "Research level: open-ended problems that extend the passage material to new settings",
}

// Description returns the fixed human-readable description of the level
func (d Difficulty) Description() string {
	if desc, ok := difficultyDescriptions[d]; ok {
		return desc
	}
	return ""
}

// Rank returns the position of the level in the ordering, or -1 if unknown
func (d Difficulty) Rank() int {
	for i, known := range Difficulties {
		if d == known {
			return i
		}
	}
	return -1
}

// ParseDifficulty parses a difficulty level name
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Rank() < 0 {
		return "", false
	}
	return d, true
}
