package notify

import (
	"fmt"
	"strings"
)

// placeholderFields are the tokens substituted into subject/body templates,
// written as {field} in the template text.
var placeholderFields = []string{
	FieldFirstName,
	FieldClientName,
	FieldEvalTime,
	FieldEvalDate,
	FieldPearsonLink,
	FieldZoomLink,
	FieldTalogyLink,
	FieldEmail,
	FieldServiceType,
}

// requiredFields must all be non-empty before any send. This guards against
// sending broken notifications if the row changed between fetch and send.
var requiredFields = []string{
	FieldEmail,
	FieldFirstName,
	FieldClientName,
	FieldEvalTime,
	FieldEvalDate,
	FieldPearsonLink,
	FieldZoomLink,
	FieldTalogyLink,
}

// Render substitutes the fixed placeholder tokens with snapshot values.
// Unrecognized placeholders are left untouched. No escaping is applied;
// templates are trusted HTML authored by an administrator.
func Render(template string, snap RowSnapshot) string {
	pairs := make([]string, 0, len(placeholderFields)*2)
	for _, field := range placeholderFields {
		pairs = append(pairs, "{"+field+"}", snap.Field(field))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// CheckSendable verifies the required-field precondition, returning the name
// of the first empty field.
func CheckSendable(snap RowSnapshot) error {
	for _, field := range requiredFields {
		if snap.Field(field) == "" {
			return fmt.Errorf("required field %q is empty", field)
		}
	}
	return nil
}
