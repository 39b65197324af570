package domain

import "time"

// FilterKind is the closed set of recognized day-filter tokens.
// Unrecognized tokens parse to FilterUnknown, which the pipeline
// ignores rather than rejecting the whole request.
type FilterKind string

const (
	FilterUnknown FilterKind = ""

	// Weekday restrictions.
	FilterMonday    FilterKind = "monday"
	FilterTuesday   FilterKind = "tuesday"
	FilterWednesday FilterKind = "wednesday"
	FilterThursday  FilterKind = "thursday"
	FilterFriday    FilterKind = "friday"

	// Previous-day direction and magnitude.
	FilterPrevPos    FilterKind = "prev_pos"
	FilterPrevNeg    FilterKind = "prev_neg"
	FilterPrevPctPos FilterKind = "prev_pct_pos"
	FilterPrevPctNeg FilterKind = "prev_pct_neg"

	// Previous-day relative volume.
	FilterRelVolGT FilterKind = "relvol_gt"
	FilterRelVolLT FilterKind = "relvol_lt"

	// Outlier trimming over the currently filtered rows.
	FilterTrimExtremes FilterKind = "trim_extremes"

	// Economic-event membership.
	FilterCPIDay         FilterKind = "cpi_day"
	FilterFOMCDay        FilterKind = "fomc_day"
	FilterFOMCWeek       FilterKind = "fomc_week"
	FilterNFPDay         FilterKind = "nfp_day"
	FilterPPIDay         FilterKind = "ppi_day"
	FilterRetailSalesDay FilterKind = "retail_sales_day"
	FilterGDPDay         FilterKind = "gdp_day"
	FilterPCEDay         FilterKind = "pce_day"
	FilterMajorEventDay  FilterKind = "major_event_day"

	// Time-of-day price comparison.
	FilterTimeAGtTimeB FilterKind = "timeA_gt_timeB"
	FilterTimeALtTimeB FilterKind = "timeA_lt_timeB"
)

// pluralAliases maps the UI's plural event tokens onto the canonical
// singular kinds.
var pluralAliases = map[string]FilterKind{
	"cpi_days":          FilterCPIDay,
	"fomc_days":         FilterFOMCDay,
	"nfp_days":          FilterNFPDay,
	"ppi_days":          FilterPPIDay,
	"retail_sales_days": FilterRetailSalesDay,
	"gdp_days":          FilterGDPDay,
	"pce_days":          FilterPCEDay,
}

var knownFilters = map[FilterKind]struct{}{
	FilterMonday: {}, FilterTuesday: {}, FilterWednesday: {},
	FilterThursday: {}, FilterFriday: {},
	FilterPrevPos: {}, FilterPrevNeg: {},
	FilterPrevPctPos: {}, FilterPrevPctNeg: {},
	FilterRelVolGT: {}, FilterRelVolLT: {},
	FilterTrimExtremes: {},
	FilterCPIDay:       {}, FilterFOMCDay: {}, FilterFOMCWeek: {},
	FilterNFPDay: {}, FilterPPIDay: {}, FilterRetailSalesDay: {},
	FilterGDPDay: {}, FilterPCEDay: {}, FilterMajorEventDay: {},
	FilterTimeAGtTimeB: {}, FilterTimeALtTimeB: {},
}

// ParseFilterKind maps a raw token to its FilterKind. Plural event
// aliases resolve to the singular kind; anything else unrecognized
// yields FilterUnknown.
func ParseFilterKind(token string) FilterKind {
	if kind, ok := pluralAliases[token]; ok {
		return kind
	}
	kind := FilterKind(token)
	if _, ok := knownFilters[kind]; ok {
		return kind
	}
	return FilterUnknown
}

// ParseFilterKinds maps raw tokens to kinds, dropping unrecognized ones.
func ParseFilterKinds(tokens []string) []FilterKind {
	kinds := make([]FilterKind, 0, len(tokens))
	for _, tok := range tokens {
		if kind := ParseFilterKind(tok); kind != FilterUnknown {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Weekday returns the weekday a weekday-filter kind restricts to.
func (k FilterKind) Weekday() (time.Weekday, bool) {
	switch k {
	case FilterMonday:
		return time.Monday, true
	case FilterTuesday:
		return time.Tuesday, true
	case FilterWednesday:
		return time.Wednesday, true
	case FilterThursday:
		return time.Thursday, true
	case FilterFriday:
		return time.Friday, true
	}
	return 0, false
}

// EventType returns the event calendar a single-day event filter
// restricts to. fomc_week and major_event_day resolve their calendars
// in the pipeline, not here.
func (k FilterKind) EventType() (EventType, bool) {
	switch k {
	case FilterCPIDay:
		return EventCPI, true
	case FilterFOMCDay:
		return EventFOMC, true
	case FilterNFPDay:
		return EventNFP, true
	case FilterPPIDay:
		return EventPPI, true
	case FilterRetailSalesDay:
		return EventRetailSales, true
	case FilterGDPDay:
		return EventGDP, true
	case FilterPCEDay:
		return EventPCE, true
	}
	return "", false
}
