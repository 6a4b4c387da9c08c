package models

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	user := User{Password: "secret123"}

	if err := user.HashPassword(); err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if user.Password == "secret123" {
		t.Fatal("HashPassword() left the password in plain text")
	}

	if !user.ComparePassword("secret123") {
		t.Fatal("ComparePassword() rejected the correct password")
	}
	if user.ComparePassword("wrong-password") {
		t.Fatal("ComparePassword() accepted a wrong password")
	}
}

func TestValidRole(t *testing.T) {
	cases := []struct {
		role  string
		valid bool
	}{
		{"citizen", true},
		{"admin", true},
		{"superadmin", true},
		{"root", false},
		{"", false},
		{"Admin", false},
	}

	for _, tc := range cases {
		if got := ValidRole(tc.role); got != tc.valid {
			t.Errorf("ValidRole(%q) = %v, want %v", tc.role, got, tc.valid)
		}
	}
}

func TestIsStaffRole(t *testing.T) {
	if IsStaffRole("citizen") {
		t.Error("IsStaffRole(citizen) = true, want false")
	}
	if !IsStaffRole("admin") || !IsStaffRole("superadmin") {
		t.Error("IsStaffRole should accept admin and superadmin")
	}
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	user := User{
		Name:         "Avery",
		Email:        "avery@example.com",
		Password:     "hash",
		RefreshToken: "token",
		Role:         RoleCitizen,
	}

	public := user.Public()
	if _, ok := public["password"]; ok {
		t.Fatal("Public() exposed the password")
	}
	if _, ok := public["refreshToken"]; ok {
		t.Fatal("Public() exposed the refresh token")
	}
	if public["email"] != "avery@example.com" {
		t.Fatalf("Public() email = %v, want avery@example.com", public["email"])
	}
}
