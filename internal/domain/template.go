package domain

// Template is a reusable, named preset of one or more entries.
type Template struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Exercises []Entry `json:"exercises"`
}

// NewTemplate creates a template with a fresh id.
func NewTemplate(name string, exercises []Entry) Template {
	return Template{
		ID:        NewID("tpl-"),
		Name:      name,
		Exercises: exercises,
	}
}
