// Package model defines domain types for netra attendance data.
package model

import "strings"

// PhotoBaseURL serves student photos keyed by hall ticket number.
const PhotoBaseURL = "https://psapi.kmitonline.com/public/student_images/KMCE/"

// Profile is the student record returned by the portal, with every
// polymorphic field already resolved to its display string.
type Profile struct {
	Name        string `json:"name"`
	StudentName string `json:"student_name,omitempty"` // nested student.name, preferred over Name
	HallTicket  string `json:"hall_ticket,omitempty"`
	Course      string `json:"course,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Section     string `json:"section,omitempty"`
	Year        string `json:"year,omitempty"`
}

// DisplayName returns the upper-cased name to greet the student with.
// Falls back to the login username, then to "STUDENT".
func (p *Profile) DisplayName(username string) string {
	if p != nil {
		if p.StudentName != "" {
			return strings.ToUpper(p.StudentName)
		}
		if p.Name != "" {
			return strings.ToUpper(p.Name)
		}
	}
	if username != "" {
		return strings.ToUpper(username)
	}
	return "STUDENT"
}

// PhotoURL returns the student photo URL, or "" without a hall ticket number.
func (p *Profile) PhotoURL() string {
	if p == nil || p.HallTicket == "" {
		return ""
	}
	return PhotoBaseURL + p.HallTicket
}
