package models

// CalendarInfo is a read-only projection of a calendar in the external store.
// It is used for calendar selection only and never written back; the store
// owns all calendar metadata.
type CalendarInfo struct {
	ID          int64  `json:"id" db:"id"`
	DisplayName string `json:"display_name" db:"display_name"`
	AccountName string `json:"account_name" db:"account_name"`
	IsPrimary   bool   `json:"is_primary" db:"is_primary"`
}

func (c CalendarInfo) String() string {
	return c.DisplayName
}
