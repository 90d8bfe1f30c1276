package persistence

import "time"

// Classroom represents a bookable classroom catalog entry.
type Classroom struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking represents one stored booking instance. Start and End are naive
// wall-clock times; stores keep them without zone information.
type Booking struct {
	ID          string
	ClassroomID string
	Title       string
	Organizer   string
	Description string
	Start       time.Time
	End         time.Time
	Kind        string
	SeriesID    string
	OwnerID     string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
