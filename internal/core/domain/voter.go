package domain

import "github.com/google/uuid"

// Voter is the registered identity admitted to vote. Verification flags are
// set by the identity service upstream and are informational here.
type Voter struct {
	ID            uuid.UUID `json:"id"`
	VoterID       string    `json:"voterId"`
	Name          string    `json:"name"`
	FaceVerified  bool      `json:"faceVerified"`
	PhoneVerified bool      `json:"phoneVerified"`
}
