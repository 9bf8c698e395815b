package auth

import (
	"errors"
	"strings"
	"testing"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SaltIsRandom(t *testing.T) {
	ps := newTestPasswordService()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_Limits(t *testing.T) {
	ps := newTestPasswordService()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"empty", "", true},
		{"exactly 72 bytes", strings.Repeat("a", 72), false},
		{"73 bytes", strings.Repeat("a", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Hash(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("Hash() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "correct-horse-battery-staple"); err != nil {
		t.Errorf("Verify() correct password: %v", err)
	}
	if err := ps.Verify(hash, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Verify() wrong password error = %v, want ErrInvalidPassword", err)
	}
	if err := ps.Verify("not-a-valid-bcrypt-hash", "password"); err == nil {
		t.Error("Verify() should fail for a garbage hash")
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	for _, password := range []string{"hello123", "p@$$w0rd!#%", "пароль-密码", "  padded  "} {
		hash, err := ps.Hash(password)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", password, err)
		}
		if err := ps.Verify(hash, password); err != nil {
			t.Errorf("Verify() failed for %q: %v", password, err)
		}
	}
}
