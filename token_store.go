package goAuthClient

import "github.com/MrEthical07/goAuthClient/tokenstore"

// TokenStore is the credential contract used by the pipeline. All methods
// must be safe for concurrent use and sequentially consistent.
// [tokenstore.Store] is the standard implementation.
type TokenStore interface {
	Get() Credentials
	SetAccess(token string)
	SetRefresh(token string)
	Clear()
}

// generationalStore lets the refresh coordinator discard results that raced
// a logout or a new login.
type generationalStore interface {
	Snapshot() (Credentials, uint64)
	ApplyRefresh(gen uint64, accessToken, refreshToken string) bool
	ClearIfGeneration(gen uint64) bool
}

type credentialSetter interface {
	SetCredentials(Credentials)
}

var (
	_ TokenStore        = (*tokenstore.Store)(nil)
	_ generationalStore = (*tokenstore.Store)(nil)
	_ credentialSetter  = (*tokenstore.Store)(nil)
)

// NewMemoryTokenStore returns a non-persistent store.
func NewMemoryTokenStore() *tokenstore.Store {
	return tokenstore.New(nil)
}

// storeCredentials writes a full pair, atomically when the store allows it.
func storeCredentials(store TokenStore, creds Credentials) {
	if s, ok := store.(credentialSetter); ok {
		s.SetCredentials(creds)
		return
	}
	store.SetRefresh(creds.RefreshToken)
	store.SetAccess(creds.AccessToken)
}
