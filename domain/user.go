package domain

// StaffAccount is a login principal. PasswordHash is a bcrypt hash and is
// never serialized.
type StaffAccount struct {
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	CreatedAt    string `json:"created_at,omitempty" db:"created_at"`
}
