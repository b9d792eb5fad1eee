package auth

import (
	"sync"
	"time"
)

// Session holds a logged-in user's identity and upstream credential.
// Sessions live in process memory only; a restart logs everyone out.
type Session struct {
	ID          string
	UserID      string
	Email       string
	Name        string
	Picture     string
	AccessToken string
	CreatedAt   time.Time
}

type sessionStore struct {
	sessions sync.Map // session id -> *Session
	states   sync.Map // oauth state -> expiry time.Time
}

const stateTTL = 10 * time.Minute

func (st *sessionStore) putSession(s *Session) {
	st.sessions.Store(s.ID, s)
}

func (st *sessionStore) getSession(id string) (*Session, bool) {
	val, ok := st.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

func (st *sessionStore) deleteSession(id string) {
	st.sessions.Delete(id)
}

func (st *sessionStore) putState(state string) {
	st.states.Store(state, time.Now().Add(stateTTL))
}

// consumeState validates and removes a login state value. One shot:
// replays fail.
func (st *sessionStore) consumeState(state string) bool {
	val, ok := st.states.LoadAndDelete(state)
	if !ok {
		return false
	}
	return time.Now().Before(val.(time.Time))
}

// pruneStates drops expired login states. Called opportunistically from
// the login handler; the set stays tiny.
func (st *sessionStore) pruneStates() {
	now := time.Now()
	st.states.Range(func(key, value interface{}) bool {
		if now.After(value.(time.Time)) {
			st.states.Delete(key)
		}
		return true
	})
}
