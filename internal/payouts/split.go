package payouts

// Split divides gross batch revenue into the platform commission and the
// organizer's net. Invariant: net + commission == gross, with the commission
// rounded down so the organizer never loses a paisa to rounding twice.
func Split(grossPaise int64, commissionPercent int) (commissionPaise, netPaise int64) {
	if grossPaise <= 0 {
		return 0, 0
	}
	commissionPaise = grossPaise * int64(commissionPercent) / 100
	return commissionPaise, grossPaise - commissionPaise
}
