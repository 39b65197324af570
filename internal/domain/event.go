package domain

// EventType identifies an economic-event calendar maintained in the
// reference data. Corresponds to the economic_events table in PostgreSQL.
type EventType string

const (
	EventCPI         EventType = "CPI"
	EventFOMC        EventType = "FOMC"
	EventNFP         EventType = "NFP"
	EventPPI         EventType = "PPI"
	EventRetailSales EventType = "RETAIL_SALES"
	EventGDP         EventType = "GDP"
	EventPCE         EventType = "PCE"
)

// AllEventTypes lists every recognized event calendar.
var AllEventTypes = []EventType{
	EventCPI, EventFOMC, EventNFP, EventPPI,
	EventRetailSales, EventGDP, EventPCE,
}

// String returns the string representation of EventType.
func (e EventType) String() string {
	return string(e)
}

// IsValid checks if the event type is a valid value.
func (e EventType) IsValid() bool {
	for _, known := range AllEventTypes {
		if e == known {
			return true
		}
	}
	return false
}
