package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHolderLifecycle(t *testing.T) {
	h := NewHolder()
	assert.False(t, h.Session().Ready())
	assert.False(t, h.Session().SignedIn())

	h.SignIn(" user_1 ")
	assert.Equal(t, Session{UserID: "user_1", Loaded: true}, h.Session())
	assert.True(t, h.Session().SignedIn())

	calls := 0
	h.OnSignOut(func() { calls++ })
	h.SignOut()
	assert.Equal(t, 1, calls)
	assert.True(t, h.Session().Ready())
	assert.False(t, h.Session().SignedIn())
}

func TestAnonymousSessionIsLoadedButNotSignedIn(t *testing.T) {
	s := Static{Loaded: true}
	assert.True(t, s.Session().Ready())
	assert.False(t, s.Session().SignedIn())
}
