package bluefolder

import (
	"strings"
	"time"
)

// TimeLayout is the date format BlueFolder uses in request filters and in
// rate-limit error messages (e.g. "2025.11.08 12:05 AM").
const TimeLayout = "2006.01.02 3:04 PM"

// Assignment is one scheduled block of work for a technician.
type Assignment struct {
	AssignmentID     int    `json:"assignmentId"`
	ServiceRequestID int    `json:"serviceRequestId"`
	Start            string `json:"start,omitempty"` // ISO datetime, may be empty for all-day work
	End              string `json:"end,omitempty"`
	IsComplete       bool   `json:"isComplete,omitempty"`
}

// ServiceRequest carries the ticket fields the pipeline needs.
type ServiceRequest struct {
	ServiceRequestID   int    `json:"serviceRequestId"`
	CustomerID         int    `json:"customerId"`
	CustomerLocationID int    `json:"customerLocationId"`
	Subject            string `json:"subject"`
}

// Location is a customer service address.
type Location struct {
	Address string `json:"addressStreet"`
	City    string `json:"addressCity"`
	State   string `json:"addressState"`
	Zip     string `json:"addressPostalCode"`
}

// FullAddress joins the location parts into a single directions-ready string.
func (l Location) FullAddress() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(l.Address); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(l.City); s != "" {
		parts = append(parts, s)
	}
	tail := strings.TrimSpace(strings.TrimSpace(l.State) + " " + strings.TrimSpace(l.Zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// User is a technician record.
type User struct {
	UserID      int    `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Active      bool   `json:"active"`
	AddressWork string `json:"addressWork,omitempty"`
	AddressHome string `json:"addressHome,omitempty"`
}

// FullName returns the display name for logs and previews.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EnrichedAssignment is an assignment joined with its service request subject
// and customer location, ready for stop building.
type EnrichedAssignment struct {
	AssignmentID     int    `json:"assignmentId"`
	ServiceRequestID int    `json:"serviceRequestId"`
	Subject          string `json:"subject"`
	Address          string `json:"address"`
	City             string `json:"city"`
	State            string `json:"state"`
	Zip              string `json:"zip"`
	Start            string `json:"start,omitempty"`
	End              string `json:"end,omitempty"`
}

// FullAddress joins the enriched address parts the same way Location does.
func (a EnrichedAssignment) FullAddress() string {
	return Location{Address: a.Address, City: a.City, State: a.State, Zip: a.Zip}.FullAddress()
}

// DayRange returns the BlueFolder-formatted start/end filter strings covering
// the whole of the given day.
func DayRange(day time.Time) (start, end string) {
	y, m, d := day.Date()
	loc := day.Location()
	start = time.Date(y, m, d, 0, 0, 0, 0, loc).Format(TimeLayout)
	end = time.Date(y, m, d, 23, 59, 0, 0, loc).Format(TimeLayout)
	return start, end
}
