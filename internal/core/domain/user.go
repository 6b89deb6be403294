package domain

import "time"

// MaxUserIDLength bounds externally assigned user identifiers.
const MaxUserIDLength = 255

// User is a tenant. Its identifier is assigned by the caller and is unique.
// Deleting a user cascades to every notebook, document and chunk it owns.
type User struct {
	// ID is the externally assigned identifier.
	ID string

	// CreatedAt is when the user was registered.
	CreatedAt time.Time
}
