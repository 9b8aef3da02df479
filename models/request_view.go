package models

// Contact is a person attached to a request as shown to other parties.
// Email and phone are left empty when the viewer may only see names.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AssignedProvider is the provider profile of the request's assignee with
// its owner resolved.
type AssignedProvider struct {
	ID           string       `json:"id"`
	Categories   []string     `json:"categories"`
	Availability Availability `json:"availability"`
	Location     GeoPoint     `json:"location"`
	Address      string       `json:"address,omitempty"`
	User         *Contact     `json:"user,omitempty"`
}

// RequestView is a ServiceRequest with its customer and assigned provider
// resolved for display. The raw ids stay on the embedded request.
type RequestView struct {
	ServiceRequest
	Customer         *Contact          `json:"customer,omitempty"`
	AssignedProvider *AssignedProvider `json:"assignedProvider,omitempty"`
}
