package models

import "time"

// Certificate is a signed document record. Message holds the exact bytes the
// signature covers; CleanedText is the normalized form kept for search and
// display. PublicKey is embedded so a record stays verifiable even after the
// subject's key pair rotates.
type Certificate struct {
	ID          int64
	Identifier  string
	OrgCode     string
	PersonID    string
	Text        string
	CleanedText string
	Message     []byte
	Signature   []byte
	PublicKey   []byte
	CreatedAt   time.Time
}
