package domain

// ShareOwed returns the portion of the amount owed by the given
// participant, honoring the stored split map and defaulting to an even
// division across participants when no split was recorded. A user who
// is not a participant owes nothing.
func (t SharedTransaction) ShareOwed(userID string) float64 {
	if len(t.Participants) == 0 {
		return 0
	}
	if t.Split != nil {
		return float64(t.Amount) * t.Split[userID]
	}
	for _, p := range t.Participants {
		if p == userID {
			return float64(t.Amount) / float64(len(t.Participants))
		}
	}
	return 0
}

// NetContribution is the payer's outstanding credit on this
// transaction: the amount fronted minus their own share. For anyone
// other than the payer it is the negated share they owe.
func (t SharedTransaction) NetContribution(userID string) float64 {
	if userID == t.Payer {
		return float64(t.Amount) - t.ShareOwed(userID)
	}
	return -t.ShareOwed(userID)
}
