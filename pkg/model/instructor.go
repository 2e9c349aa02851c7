package model

type Instructor struct {
	ID         int    `csv:"id"`
	FirstName  string `csv:"first_name"`
	LastName   string `csv:"last_name"`
	Department string `csv:"department"`
}

func (i Instructor) Name() string {
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}
