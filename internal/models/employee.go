package models

import "strings"

type Employee struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName"`
}

// Label returns the best display name the record carries, or "".
func (e Employee) Label() string {
	if full := strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName)); full != "" {
		return full
	}
	for _, v := range []string{e.Name, e.FullName, e.DisplayName} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
