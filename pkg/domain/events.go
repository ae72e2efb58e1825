package domain

// EventName identifies a change notification. Subscribers re-read the
// relevant list; the payload is informational only.
type EventName string

const (
	EventBookmarksChanged       EventName = "bookmarksChanged"
	EventRecentlyRemovedChanged EventName = "recentlyRemovedChanged"
	EventFollowUpChanged        EventName = "followUpChanged"
	EventClosedChanged          EventName = "closedChanged"
	EventPropertyAdded          EventName = "propertyAdded"
	EventPropertyUpdated        EventName = "propertyUpdated"
	EventPropertyDeleted        EventName = "propertyDeleted"
)

// Event is delivered to subscribers after a successful mutation.
type Event struct {
	Name       EventName `json:"name"`
	PropertyID string    `json:"propertyId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
}
