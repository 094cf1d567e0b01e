package members

// SeatDecision is the outcome of a seat-limit check. AvailableSeats is only
// meaningful when Allowed is false.
type SeatDecision struct {
	Allowed        bool
	AvailableSeats int
}

// CheckSeatLimit applies the plan seat policy shared by single add and bulk
// import. A nil limit means the plan is unlimited.
func CheckSeatLimit(current, incoming int, limit *int) SeatDecision {
	if limit == nil {
		return SeatDecision{Allowed: true}
	}
	if current+incoming > *limit {
		return SeatDecision{Allowed: false, AvailableSeats: *limit - current}
	}
	return SeatDecision{Allowed: true}
}
