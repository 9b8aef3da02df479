package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityOffline   Availability = "OFFLINE"
	AvailabilityBusy      Availability = "BUSY"
)

// ParseAvailability validates an availability coming from a client.
func ParseAvailability(s string) (Availability, bool) {
	switch a := Availability(s); a {
	case AvailabilityAvailable, AvailabilityOffline, AvailabilityBusy:
		return a, true
	}
	return "", false
}

// GeoPoint is a GeoJSON point. Coordinates are [lng, lat].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a GeoJSON point from longitude and latitude.
func NewPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// ProviderProfile is written by the registration and admin services; this
// backend only reads it, apart from the availability toggle.
type ProviderProfile struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"userId" bson:"userId"`
	Categories         []string           `json:"categories" bson:"categories"`
	VerificationStatus VerificationStatus `json:"verificationStatus" bson:"verificationStatus"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	Availability       Availability       `json:"availability" bson:"availability"`
	Location           GeoPoint           `json:"location" bson:"location"`
	Address            string             `json:"address" bson:"address"`
	FCMToken           string             `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (p *ProviderProfile) IsApproved() bool {
	return p.VerificationStatus == VerificationApproved
}

// IsCandidate reports whether the profile may be offered new work.
func (p *ProviderProfile) IsCandidate() bool {
	return p.IsApproved() && p.IsActive && p.Availability == AvailabilityAvailable
}

func (p *ProviderProfile) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// AvailabilityUpdateRequest is the body of PATCH /provider/availability
type AvailabilityUpdateRequest struct {
	Availability string `json:"availability" validate:"required,oneof=AVAILABLE OFFLINE BUSY"`
}
