package account

import (
	"regexp"
	"testing"
	"time"
)

func TestRecordFailedLogin_LocksOnFifthFailure(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &Account{}

	for i := 1; i <= 4; i++ {
		if locked := acct.RecordFailedLogin(now); locked {
			t.Fatalf("failure %d should not lock", i)
		}
	}
	if !acct.RecordFailedLogin(now) {
		t.Fatal("fifth failure should lock")
	}
	if acct.LockUntil == nil || !acct.LockUntil.Equal(now.Add(5*time.Minute)) {
		t.Errorf("expected lock until %v, got %v", now.Add(5*time.Minute), acct.LockUntil)
	}
}

func TestIsLoginLocked_ElapsedLockIsNotActive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(5 * time.Minute)
	acct := &Account{LockUntil: &until}

	if !acct.IsLoginLocked(now.Add(2 * time.Minute)) {
		t.Error("expected lock active at minute 2")
	}
	if acct.IsLoginLocked(now.Add(5 * time.Minute)) {
		t.Error("a lock expiring exactly now is no longer active")
	}
	if acct.IsLoginLocked(now.Add(6 * time.Minute)) {
		t.Error("expected lock inactive at minute 6")
	}
}

func TestRecordSuccessfulLogin_ResetsThrottleAndRotatesMarker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(5 * time.Minute)
	code := "123456"
	acct := &Account{
		SessionToken:     "old-token",
		LoginAttempts:    5,
		LockUntil:        &until,
		ResetCode:        &code,
		ResetCodeExpires: &until,
	}

	acct.RecordSuccessfulLogin("new-token")

	if acct.LoginAttempts != 0 || acct.LockUntil != nil {
		t.Error("expected login throttle fully reset")
	}
	if acct.SessionToken != "new-token" {
		t.Errorf("expected marker rotated, got %s", acct.SessionToken)
	}
	if acct.ResetCode != nil || acct.ResetCodeExpires != nil {
		t.Error("expected pending reset code cleared")
	}
}

func TestResetCodeExpired_NilExpiryIsNotExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &Account{}

	// No pending code: not "expired". The mismatch path handles it.
	if acct.ResetCodeExpired(now) {
		t.Error("account without a code must not report expired")
	}

	acct.SetResetCode("123456", now)
	if acct.ResetCodeExpired(now.Add(2 * time.Minute)) {
		t.Error("code should be live inside the window")
	}
	if !acct.ResetCodeExpired(now.Add(3 * time.Minute)) {
		t.Error("code expiring exactly now is expired")
	}
}

func TestMatchesResetCode(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &Account{}

	if acct.MatchesResetCode("123456", now) {
		t.Error("no pending code must not match")
	}

	acct.SetResetCode("123456", now)
	if !acct.MatchesResetCode("123456", now.Add(time.Minute)) {
		t.Error("expected live matching code to match")
	}
	if acct.MatchesResetCode("654321", now.Add(time.Minute)) {
		t.Error("wrong code must not match")
	}
	if acct.MatchesResetCode("123456", now.Add(3*time.Minute)) {
		t.Error("expired code must not match")
	}
}

func TestClearElapsedResetLock(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	until := now.Add(5 * time.Minute)
	acct := &Account{ResetAttempts: 3, ResetLockUntil: &until}

	if acct.ClearElapsedResetLock(now.Add(2 * time.Minute)) {
		t.Error("an active lock must not be cleared")
	}
	if !acct.ClearElapsedResetLock(now.Add(6 * time.Minute)) {
		t.Error("an elapsed lock should be cleared")
	}
	if acct.ResetAttempts != 0 || acct.ResetLockUntil != nil {
		t.Error("expected attempt counter and lock reset")
	}

	// Idempotent: nothing left to clear.
	if acct.ClearElapsedResetLock(now.Add(7 * time.Minute)) {
		t.Error("clearing twice must report no change")
	}
}

func TestRecordFailedResetAttempt_LocksOnThirdFailure(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &Account{}

	for i := 1; i <= 2; i++ {
		if locked := acct.RecordFailedResetAttempt(now); locked {
			t.Fatalf("failure %d should not lock", i)
		}
	}
	if !acct.RecordFailedResetAttempt(now) {
		t.Fatal("third failure should lock")
	}
	if acct.ResetLockUntil == nil || !acct.ResetLockUntil.Equal(now.Add(5*time.Minute)) {
		t.Errorf("expected code lock until %v, got %v", now.Add(5*time.Minute), acct.ResetLockUntil)
	}
}

func TestRecordSuccessfulResetVerify_KeepsCode(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &Account{ResetAttempts: 2}
	acct.SetResetCode("123456", now)

	acct.RecordSuccessfulResetVerify()

	if acct.ResetAttempts != 0 || acct.ResetLockUntil != nil {
		t.Error("expected attempt throttle reset")
	}
	if acct.ResetCode == nil {
		t.Error("verification must not consume the code")
	}
}

func TestGenerateID_V4Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateID()
		if !pattern.MatchString(id) {
			t.Fatalf("not a v4 UUID: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
