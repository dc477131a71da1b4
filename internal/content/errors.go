package content

import "strings"

type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "generated document missing " + strings.Join(e.Fields, ", ")
}
