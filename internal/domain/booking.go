package domain

// Booking is a historical booking record. It is only used to build aggregate
// statistics and train the demand model; the movie attributes are denormalized
// copies taken at booking time. ShowsAt and BookedAt are raw ISO datetimes.
type Booking struct {
	ID         int
	UserID     int
	ShowID     int
	MovieID    int
	MovieTitle string
	GenreIDs   []int
	CastIDs    []int
	ShowsAt    string
	TotalPrice float64
	SeatCount  int
	BookedAt   string
	Status     string
}
