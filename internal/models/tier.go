// ABOUTME: Subscription tier and entity family enums.
// ABOUTME: Tier decides which backend owns new writes; Family names the synced tables.
package models

import "strings"

// Tier is the user's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// AllTiers lists every known tier.
var AllTiers = []Tier{TierFree, TierPro, TierPremium}

// ParseTier maps a plan string to a Tier. Unknown values map to TierFree
// and ok is false.
func ParseTier(s string) (tier Tier, ok bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, true
	case TierPro:
		return TierPro, true
	case TierPremium:
		return TierPremium, true
	default:
		return TierFree, false
	}
}

// CloudEnabled reports whether the tier is entitled to cloud storage.
func (t Tier) CloudEnabled() bool {
	return t == TierPro || t == TierPremium
}

// Family identifies one of the synced entity tables.
type Family string

const (
	FamilyWorkoutSession   Family = "workout_sessions"
	FamilyExerciseLog      Family = "exercise_logs"
	FamilyProgressTracking Family = "progress_tracking"
)

// Families returns the entity families parent-before-child.
// Exercise logs reference sessions, so sessions always come first.
func Families() []Family {
	return []Family{FamilyWorkoutSession, FamilyExerciseLog, FamilyProgressTracking}
}

// Table returns the table name backing the family in both stores.
func (f Family) Table() string {
	return string(f)
}

// IsValid checks if f is one of the known families.
func (f Family) IsValid() bool {
	for _, known := range Families() {
		if f == known {
			return true
		}
	}
	return false
}
