package model

import "time"

// BookingLock is an advisory lock keyed by the candidate pooja date. It
// prevents two concurrent creates for the same date from both passing the
// availability check before either write commits.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
