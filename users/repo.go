package users

type UserRepo interface {
	Upsert(user *User) error
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByID(id int64) (*User, error)
	SetPassword(id int64, passwordHash string) error
	List(offset, limit int) ([]*User, error)
}
