package domain

// Position is a job title held by one or more employees.
type Position struct {
	ID    int64
	Title string
	Level string
}
