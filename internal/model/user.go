// internal/model/user.go
package model

// User exists in the schema for future authentication; no HTTP route reads it.
type User struct {
    ID       int    `db:"id" json:"id"`
    Username string `db:"username" json:"username"`
    Password string `db:"password" json:"-"`
    Role     string `db:"role" json:"role"`
}
