package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestIssuer() *Issuer {
	return NewIssuer(
		[]byte("access-secret"),
		[]byte("refresh-secret"),
		15*time.Minute,
		24*time.Hour,
	)
}

func TestIssueAndVerifyAccess(t *testing.T) {
	iss := newTestIssuer()
	actorID := uuid.New()

	tok, err := iss.Access(actorID, "patient", "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := iss.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ActorID != actorID {
		t.Errorf("expected actor id %s, got %s", actorID, claims.ActorID)
	}
	if claims.ActorType != "patient" {
		t.Errorf("expected actor type patient, got %s", claims.ActorType)
	}
	if claims.Role != "patient" {
		t.Errorf("expected role patient, got %s", claims.Role)
	}
}

func TestAccessTokenRejectedByRefreshVerifier(t *testing.T) {
	iss := newTestIssuer()

	tok, err := iss.Access(uuid.New(), "doctor", "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := iss.VerifyRefresh(tok); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	iss := newTestIssuer()

	past := time.Now().Add(-48 * time.Hour)
	iss.now = func() time.Time { return past }
	tok, err := iss.Access(uuid.New(), "patient", "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.VerifyAccess(tok); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	iss := newTestIssuer()
	if _, err := iss.VerifyAccess("not-a-token"); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_MissingActorTypeClaim(t *testing.T) {
	// A token signed with the right secret but without an actor type tag is
	// rejected rather than falling back to any default actor namespace.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ActorID: uuid.New(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	iss := newTestIssuer()
	if _, err := iss.VerifyAccess(signed); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestIssue_NewTokenEachCall(t *testing.T) {
	iss := newTestIssuer()
	actorID := uuid.New()

	t1, err := iss.Access(actorID, "patient", "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t2, err := iss.Access(actorID, "patient", "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if t1 == t2 {
		t.Error("expected distinct tokens from consecutive issuance")
	}

	c1, _ := iss.VerifyAccess(t1)
	c2, _ := iss.VerifyAccess(t2)
	if c1.ActorID != c2.ActorID {
		t.Error("expected both tokens to carry the same actor id")
	}
}
