package users

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func strPtr(s string) *string { return &s }

func TestProfileInputSet(t *testing.T) {
	age := 34
	in := profileInput{
		Name:  strPtr("Asha Rao"),
		Phone: strPtr("555-0101"),
		Age:   &age,
	}

	set, err := in.set()
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("set has %d fields, want 3", len(set))
	}
	if set["name"] != "Asha Rao" || set["phone"] != "555-0101" || set["age"] != 34 {
		t.Errorf("set = %v", set)
	}
	if _, ok := set["password"]; ok {
		t.Error("password set without input")
	}
}

func TestProfileInputSetHashesPassword(t *testing.T) {
	in := profileInput{Password: strPtr("s3cret-pass")}

	set, err := in.set()
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	hashed, ok := set["password"].(string)
	if !ok {
		t.Fatal("password missing from set")
	}
	if hashed == "s3cret-pass" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte("s3cret-pass")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
}

func TestProfileInputSetIgnoresEmptyPassword(t *testing.T) {
	in := profileInput{Password: strPtr("")}
	set, err := in.set()
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v, want empty", set)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{"patient", "doctor", "admin"} {
		if !validRole(role) {
			t.Errorf("validRole(%q) = false", role)
		}
	}
	if validRole("superuser") || validRole("") {
		t.Error("unknown role accepted")
	}
}
