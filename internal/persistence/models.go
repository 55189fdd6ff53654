package persistence

import "time"

// Person is a member of the congregation who can be rostered.
type Person struct {
	ID        string
	Name      string
	Contact   *string
	Ordained  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ministry is a named role in a service. Rows are never updated.
type Ministry struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Service is one dated act of worship together with its calendar enrichment.
type Service struct {
	ID             string
	Date           time.Time
	Time           *string
	ServiceType    string
	Songs          []string
	Notices        []string
	Readings       *string
	Collect        *string
	Season         string
	WeekLabel      string
	Color          string
	LectionaryYear string
	Published      bool
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Schedule assigns one person to one ministry for one service.
type Schedule struct {
	ID         string
	ServiceID  string
	MinistryID string
	PersonID   string
	Notified   bool
	NotifiedAt *time.Time
	CreatedAt  time.Time
}
