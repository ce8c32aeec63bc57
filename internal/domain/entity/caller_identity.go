package entity

import "github.com/google/uuid"

// CallerIdentity is the resolved identity of the requester. Either side may be
// nil; an anonymous caller has neither.
type CallerIdentity struct {
	UserID     *uuid.UUID
	PatientID  *uuid.UUID
	ProviderID *uuid.UUID
	RoleID     int
}

// IsPatient checks if the caller is the given patient
func (c CallerIdentity) IsPatient(id uuid.UUID) bool {
	return c.PatientID != nil && *c.PatientID == id
}

// IsProvider checks if the caller is the given provider
func (c CallerIdentity) IsProvider(id uuid.UUID) bool {
	return c.ProviderID != nil && *c.ProviderID == id
}

// IsAnonymous reports whether no identity was resolved
func (c CallerIdentity) IsAnonymous() bool {
	return c.UserID == nil
}
