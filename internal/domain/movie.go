package domain

import "fmt"

// DefaultRoomCapacity is assumed for rooms the caller identifies only by ID.
const DefaultRoomCapacity = 90

// Movie carries the descriptive attributes the caller supplies for each film.
// ReleaseDate stays the raw ISO string it arrived with; parsing happens where
// a malformed value can be handled record by record.
type Movie struct {
	ID          int
	Title       string
	Overview    string
	GenreIDs    []int
	CastIDs     []int
	Runtime     int
	Popularity  float64
	VoteAverage float64
	VoteCount   int
	ReleaseDate string
}

type Room struct {
	ID       int
	Name     string
	Capacity int
}

func NewRoom(id int) Room {
	return Room{
		ID:       id,
		Name:     fmt.Sprintf("Room %d", id),
		Capacity: DefaultRoomCapacity,
	}
}

// ExistingShow is an already committed booking that constrains new
// scheduling. StartsAt is the raw ISO datetime; an unparsable value makes the
// record non-blocking rather than failing the whole batch.
type ExistingShow struct {
	ID       int
	MovieID  int
	RoomID   int
	StartsAt string
	Price    float64
}

// DateRange bounds an optimization run, inclusive on both ends.
type DateRange struct {
	Start string
	End   string
}
