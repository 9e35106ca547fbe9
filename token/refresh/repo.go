package refresh

import (
	"time"
)

// StoredRefreshToken is the server side record of a refresh token. The client
// only ever sees Token, an opaque random string.
type StoredRefreshToken struct {
	Token  string
	UserID int64
	Iat    time.Time
}

// Repo stores refresh tokens keyed by the token string, at most one per user.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Delete(token string) error
	Get(token string) (*StoredRefreshToken, error)
	GetByUserID(userID int64) (*StoredRefreshToken, error)
	List(offset, limit int) ([]*StoredRefreshToken, error)
}
