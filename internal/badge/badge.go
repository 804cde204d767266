package badge

// BadgeID identifies a streak milestone badge.
type BadgeID string

const (
	Badge30Day  BadgeID = "30_day"
	Badge60Day  BadgeID = "60_day"
	Badge90Day  BadgeID = "90_day"
	Badge365Day BadgeID = "365_day"
)

// Thresholds maps each badge to the streak length that unlocks it.
var Thresholds = map[BadgeID]int{
	Badge30Day:  30,
	Badge60Day:  60,
	Badge90Day:  90,
	Badge365Day: 365,
}

// ordered keeps output deterministic; map iteration order is not.
var ordered = []BadgeID{Badge30Day, Badge60Day, Badge90Day, Badge365Day}

// EarnedForStreak returns every badge whose threshold is <= streak.
func EarnedForStreak(streak int) []BadgeID {
	var earned []BadgeID
	for _, b := range ordered {
		if streak >= Thresholds[b] {
			earned = append(earned, b)
		}
	}
	return earned
}

// Merge unions previously stored badges with the badges earned at the given
// streak length. Stored badges come from a jsonb column, so the input may be
// anything: non-arrays and unrecognized entries are dropped rather than
// treated as errors. Badges are never removed.
func Merge(existing any, streak int) []BadgeID {
	set := make(map[BadgeID]bool)

	switch arr := existing.(type) {
	case []BadgeID:
		for _, b := range arr {
			if _, known := Thresholds[b]; known {
				set[b] = true
			}
		}
	case []string:
		for _, s := range arr {
			if _, known := Thresholds[BadgeID(s)]; known {
				set[BadgeID(s)] = true
			}
		}
	case []any:
		for _, v := range arr {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if _, known := Thresholds[BadgeID(s)]; known {
				set[BadgeID(s)] = true
			}
		}
	}

	for _, b := range EarnedForStreak(streak) {
		set[b] = true
	}

	merged := make([]BadgeID, 0, len(set))
	for _, b := range ordered {
		if set[b] {
			merged = append(merged, b)
		}
	}
	return merged
}
