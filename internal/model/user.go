// Package model defines the entities persisted by the repository layer.
package model

// User is a registered account.
//
// PasswordHash holds bcrypt output only. It carries a `json:"-"` tag so the
// entity can never be encoded with its credential, even by accident; HTTP
// responses use handler.UserRecord instead.
type User struct {
	ID           int64  `json:"id"       db:"id"`
	Username     string `json:"username" db:"username"` // unique
	PasswordHash string `json:"-"        db:"password"`
	Email        string `json:"email"    db:"email"` // unique
}
