// FilePath: server/clima/internal/models/api.models.filters.go
package models

const (
	DefaultReadingHours = 24
	MaxReadingHours     = 168
)

// ReadingFilters defines the query options of the readings endpoint
type ReadingFilters struct {
	Hours int `schema:"hours"`
}

// Normalize applies the default window and clamps it to the retention horizon
func (f *ReadingFilters) Normalize() {
	if f.Hours <= 0 {
		f.Hours = DefaultReadingHours
	}
	if f.Hours > MaxReadingHours {
		f.Hours = MaxReadingHours
	}
}
