package models

// ListItemKind discriminates the variants of ListItem.
type ListItemKind string

const (
	ListItemHeader ListItemKind = "header"
	ListItemEvent  ListItemKind = "event"
)

// ListItem is one entry of a grouped event listing: either a month header or
// an event. Consumers switch on Kind() instead of type-asserting arbitrary
// values out of a mixed slice.
type ListItem interface {
	Kind() ListItemKind
}

// MonthHeader labels the section of events that start in the given month.
type MonthHeader struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

func (MonthHeader) Kind() ListItemKind { return ListItemHeader }

// EventItem wraps an event for display inside a grouped listing.
type EventItem struct {
	Event *Event `json:"event"`
}

func (EventItem) Kind() ListItemKind { return ListItemEvent }
