package store

import "time"

// Valid range for Counter.SavedValue, inclusive.
const (
	MinValue = 0
	MaxValue = 9_999_999
)

// Counter is one named counter. ID is zero until the counter is first saved.
type Counter struct {
	ID          int64
	Name        string `validate:"notblank"`
	Description string
	CreatedAt   time.Time
	SavedValue  int `validate:"min=0,max=9999999"`
}

// InRange reports whether v is a valid counter value.
func InRange(v int) bool {
	return v >= MinValue && v <= MaxValue
}

// Equal compares all fields, using time equality for CreatedAt.
func (c Counter) Equal(o Counter) bool {
	return c.ID == o.ID &&
		c.Name == o.Name &&
		c.Description == o.Description &&
		c.CreatedAt.Equal(o.CreatedAt) &&
		c.SavedValue == o.SavedValue
}

func (c Counter) Saved() bool { return c.ID != 0 }
