package domain

import (
	"slices"
	"strings"
)

// Status identifies where a task sits in delivery.
type Status string

const (
	StatusPrioritized    Status = "prioritized"
	StatusCritical       Status = "critical"
	StatusPriorityChange Status = "priority-change"
	StatusImpacted       Status = "impacted"
	StatusExternalDev    Status = "external-dev"
	StatusInDevelopment  Status = "in-development"
	StatusPlanned        Status = "planned"
	StatusBlocked        Status = "blocked"
	StatusCompleted      Status = "completed"
)

// Descriptor holds the display attributes of one status.
type Descriptor struct {
	ColorToken string
	Label      string
}

// validStatuses stores statuses in legend order.
var validStatuses = []Status{
	StatusPrioritized,
	StatusCritical,
	StatusPriorityChange,
	StatusImpacted,
	StatusExternalDev,
	StatusInDevelopment,
	StatusPlanned,
	StatusBlocked,
	StatusCompleted,
}

// Statuses returns every status in legend order.
func Statuses() []Status {
	return append([]Status(nil), validStatuses...)
}

// ParseStatus normalizes raw input into a known status.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// Descriptor returns the color token and label for the status.
// Unknown statuses get a neutral gray descriptor labeled with the raw value.
func (s Status) Descriptor() Descriptor {
	switch s {
	case StatusPrioritized:
		return Descriptor{ColorToken: "153", Label: "Prioritized"}
	case StatusCritical:
		return Descriptor{ColorToken: "61", Label: "Critical path"}
	case StatusPriorityChange:
		return Descriptor{ColorToken: "208", Label: "Priority change"}
	case StatusImpacted:
		return Descriptor{ColorToken: "210", Label: "Impacted"}
	case StatusExternalDev:
		return Descriptor{ColorToken: "78", Label: "External development"}
	case StatusInDevelopment:
		return Descriptor{ColorToken: "62", Label: "In development"}
	case StatusPlanned:
		return Descriptor{ColorToken: "117", Label: "Planned"}
	case StatusBlocked:
		return Descriptor{ColorToken: "221", Label: "Blocked"}
	case StatusCompleted:
		return Descriptor{ColorToken: "252", Label: "Completed"}
	default:
		return Descriptor{ColorToken: "245", Label: string(s)}
	}
}

// Label returns the display label for the status.
func (s Status) Label() string {
	return s.Descriptor().Label
}
