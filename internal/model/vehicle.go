package model

import "time"

// Vehicle type values as stored in the `vehicles` table.
const (
    VehicleJetSki = "jet_ski"
    VehicleBoat   = "boat"
)

// Vehicle represents a watercraft registered by a member.  A member may
// own any number of vehicles; when a scan does not identify which one
// is arriving, the access engine falls back to the most recently
// registered vehicle.
//
// Fields:
//  ID                 – primary key identifier.
//  MemberID           – owner of the vehicle.
//  RegistrationNumber – hull/registration plate (unique).
//  Type               – jet_ski or boat.
//  Model              – free-text model description (nullable).
//  Color              – free-text color (nullable).
//  CreatedAt          – timestamp of registration.
//  UpdatedAt          – timestamp of last update.
type Vehicle struct {
    ID                 uint64    // vehicles.id
    MemberID           uint64    // vehicles.member_id
    RegistrationNumber string    // vehicles.registration_number
    Type               string    // vehicles.type
    Model              *string   // vehicles.model (nullable)
    Color              *string   // vehicles.color (nullable)
    CreatedAt          time.Time // vehicles.created_at
    UpdatedAt          time.Time // vehicles.updated_at
}
