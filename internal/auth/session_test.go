package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

func TestSessions_Lifecycle(t *testing.T) {
	sessions := NewSessions()
	var events []Event
	unsubscribe := sessions.Subscribe(func(e Event) { events = append(events, e) })

	subject := models.Subject{UID: "uid-1", Email: "op@example.com"}
	sessions.SignIn(subject)
	sessions.SignIn(subject)

	got, ok := sessions.Get("uid-1")
	require.True(t, ok)
	assert.Equal(t, subject, got.Subject)
	assert.Equal(t, 1, sessions.Active())

	assert.True(t, sessions.SignOut("uid-1"))
	assert.False(t, sessions.SignOut("uid-1"))

	_, ok = sessions.Get("uid-1")
	assert.False(t, ok)

	require.Len(t, events, 2, "repeated sign-in must not notify twice")
	assert.True(t, events[0].SignedIn)
	assert.False(t, events[1].SignedIn)

	unsubscribe()
	sessions.SignIn(subject)
	assert.Len(t, events, 2)
}

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{Tokens: map[string]models.Subject{"good": {UID: "u"}}}

	subject, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u", subject.UID)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	dev := models.Subject{UID: "dev"}
	v.Fallback = &dev
	subject, err = v.Verify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "dev", subject.UID)
}
