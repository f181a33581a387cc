package application

import (
	"strings"

	"hiretrack/internal/common"
)

type Stage string

const (
	StageApplied   Stage = "APPLIED"
	StageScreening Stage = "SCREENING"
	StageInterview Stage = "INTERVIEW"
	StageOffer     Stage = "OFFER"
	StageHired     Stage = "HIRED"
	StageRejected  Stage = "REJECTED"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageApplied, StageScreening, StageInterview, StageOffer, StageHired, StageRejected}

// transitions is the full pipeline graph. Anything not listed here is illegal,
// including self edges and every edge out of Hired and Rejected.
var transitions = map[Stage][]Stage{
	StageApplied:   {StageScreening, StageRejected},
	StageScreening: {StageInterview, StageRejected},
	StageInterview: {StageOffer, StageRejected},
	StageOffer:     {StageHired, StageRejected},
	StageHired:     nil,
	StageRejected:  nil,
}

func lookupStage(value string) (Stage, bool) {
	stage := Stage(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := transitions[stage]
	return stage, ok
}

// ParseStage normalizes untrusted input into a Stage and rejects unknown names.
func ParseStage(value string) (Stage, error) {
	stage, ok := lookupStage(value)
	if !ok {
		return "", common.NewValidationError("unknown stage", map[string]string{"stage": value})
	}
	return stage, nil
}

func (s Stage) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Stage) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s Stage) String() string {
	return string(s)
}

func CanTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStages returns the stages reachable from current by one edge, in pipeline order.
func ValidNextStages(current Stage) []Stage {
	next := transitions[current]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}

// IsValidTransition compares stage names case-insensitively. Unknown names are never valid.
func IsValidTransition(current, next string) bool {
	from, ok := lookupStage(current)
	if !ok {
		return false
	}
	to, ok := lookupStage(next)
	if !ok {
		return false
	}
	return CanTransition(from, to)
}

func ValidNextStageNames(current string) []string {
	from, ok := lookupStage(current)
	if !ok {
		return []string{}
	}
	stages := transitions[from]
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		names = append(names, string(stage))
	}
	return names
}
