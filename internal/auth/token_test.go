package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrena-pm/terrena/internal/shared"
)

const testSecret = "test-secret-please-rotate"

func testActor() *ActorRecord {
	return &ActorRecord{
		ID:     "u1",
		Email:  "ana@terrena.test",
		Name:   "Ana",
		Role:   "Promoter",
		Status: "Active",
		Tenant: "  ACME ",
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	now := time.Now()

	raw, expiresAt, err := issuer.Issue(testActor(), now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := VerifyToken(testSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, shared.RolePromoter, claims.Role)
	assert.Equal(t, shared.StatusActive, claims.Status)
	assert.Equal(t, "acme", claims.Tenant, "tenant is normalized at issue time")
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	raw, _, err := issuer.Issue(testActor(), time.Now())
	require.NoError(t, err)

	_, err = VerifyToken("another-secret", raw)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Minute)
	raw, _, err := issuer.Issue(testActor(), time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, raw)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := VerifyToken(testSecret, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		err    error
	}{
		{"plain", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"case insensitive scheme", "bearer abc", "abc", nil},
		{"padded credential", "Bearer   abc  ", "abc", nil},
		{"empty header", "", "", ErrMissingCredential},
		{"scheme only", "Bearer ", "", ErrMissingCredential},
		{"wrong scheme", "Basic abc", "", ErrMissingCredential},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractBearer(tc.header)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
