package instance

// SingletonID is the fixed identifier of the one instance row.  It is a
// constant by construction: registration never generates a new id, so
// "which instance" is never a question any operation has to answer.
const SingletonID = "singleton"

// Record mirrors the full `instance` row, hash included.  It never
// leaves the service layer; handlers and clients only ever see Instance.
type Record struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	SecretHash string `db:"secret_hash"`
}

// Instance is the public projection: id, name, and email.  The secret
// hash is deliberately absent so it cannot be serialized by accident.
type Instance struct {
	ID    string `db:"id"    json:"id"`
	Name  string `db:"name"  json:"name"`
	Email string `db:"email" json:"email"`
}
