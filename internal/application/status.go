package application

// Status is the display label of a presentation status.
type Status string

// Display labels of the four presentation statuses.
const (
	StatusPlanned   Status = "Planifié"
	StatusConfirmed Status = "Confirmé"
	StatusCompleted Status = "Terminé"
	StatusCancelled Status = "Annulé"
)

var (
	backendToDisplay = map[string]Status{
		"PLANIFIE": StatusPlanned,
		"CONFIRME": StatusConfirmed,
		"TERMINE":  StatusCompleted,
		"ANNULE":   StatusCancelled,
	}
	displayToBackend = map[Status]string{
		StatusPlanned:   "PLANIFIE",
		StatusConfirmed: "CONFIRME",
		StatusCompleted: "TERMINE",
		StatusCancelled: "ANNULE",
	}
)

// Statuses returns the display labels in display order.
func Statuses() []Status {
	return []Status{StatusPlanned, StatusConfirmed, StatusCompleted, StatusCancelled}
}

// StatusToDisplay translates a backend code into its display label. Values
// outside the table are returned unchanged.
func StatusToDisplay(code string) Status {
	if label, ok := backendToDisplay[code]; ok {
		return label
	}
	return Status(code)
}

// StatusToBackend translates a display label into its backend code. Values
// outside the table are returned unchanged.
func StatusToBackend(label Status) string {
	if code, ok := displayToBackend[label]; ok {
		return code
	}
	return string(label)
}

// Known reports whether s is one of the four display labels.
func (s Status) Known() bool {
	_, ok := displayToBackend[s]
	return ok
}
