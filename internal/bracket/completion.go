package bracket

// IsConcluded reports whether both the Final and the 3rd Place Match are decided.
func IsConcluded(schedule Schedule) bool {
	final := schedule.Round(Final)
	third := schedule.Round(ThirdPlace)
	if len(final) == 0 || len(third) == 0 {
		return false
	}
	return final[0].IsDecided() && third[0].IsDecided()
}

// CanPublish reports whether a round has matches and every one of them is decided.
func CanPublish(schedule Schedule, round RoundName) bool {
	matches := schedule.Round(round)
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if !m.IsDecided() {
			return false
		}
	}
	return true
}
