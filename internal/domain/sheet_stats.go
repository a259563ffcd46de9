package domain

// SheetStats counts the sheets of a year by status.
type SheetStats struct {
	Year      int `json:"year"`
	Total     int `json:"total"`
	Available int `json:"available"`
	Delivered int `json:"delivered"`
	Issued    int `json:"issued"`
	Returned  int `json:"returned"`
}

// Add counts one sheet in the given state.
func (s *SheetStats) Add(status SheetStatus) {
	s.AddN(status, 1)
}

// AddN counts n sheets in the given state. Unknown states are normalised
// through ParseStatus.
func (s *SheetStats) AddN(status SheetStatus, n int) {
	s.Total += n
	switch ParseStatus(string(status)) {
	case SheetStatusAvailable:
		s.Available += n
	case SheetStatusDelivered:
		s.Delivered += n
	case SheetStatusIssued:
		s.Issued += n
	case SheetStatusReturned:
		s.Returned += n
	}
}
