package tests

import (
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	err := c.register(registerInfo{Username: "abc", Email: "abc@mail.com", Password: "abc_password"})
	if err != nil {
		t.Fatal(err)
	}

	err = c.register(registerInfo{Username: "abc", Email: "other@mail.com", Password: "abc_password"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate username should conflict: %v", err)
	}

	err = c.register(registerInfo{Username: "xyz", Email: "abc@mail.com", Password: "xyz_password"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email should conflict: %v", err)
	}

	if err := c.login("abc", "abc_password"); err != nil {
		t.Fatal(err)
	}
	if c.authToken == "" {
		t.Fatal("login should return an access token")
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	err := c.register(registerInfo{Username: "abc", Email: "abc@mail.com", Password: "abc_password"})
	if err != nil {
		t.Fatal(err)
	}

	wrongPassword := c.login("abc", "bad_password")
	if !errors.Is(wrongPassword, ErrUnauthorized) {
		t.Fatalf("wrong password should be unauthorized: %v", wrongPassword)
	}

	missingUser := c.login("nobody", "bad_password")
	if !errors.Is(missingUser, ErrUnauthorized) {
		t.Fatalf("missing user should be unauthorized: %v", missingUser)
	}

	// The two failures must be indistinguishable to the caller.
	if wrongPassword.Error() != missingUser.Error() {
		t.Fatalf("login errors leak information: %q vs %q", wrongPassword, missingUser)
	}
}

func TestGetUser(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	err = c.register(registerInfo{
		Username: "abc", Email: "abc@mail.com", Password: "abc_password", CompanyId: &company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	user, err := c.getUser(1)
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "abc" || user.Email != "abc@mail.com" || user.IsAdmin {
		t.Fatalf("invalid user %v", user)
	}
	if user.Company == nil || user.Company.Id != company.Id {
		t.Fatalf("user should nest its company, got %v", user.Company)
	}

	if _, err := c.getUser(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found: %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.newUser("admin1", true)
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser("user1", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newUser("user2", false); err != nil {
		t.Fatal(err)
	}

	anon := env.newClient()
	if err := anon.deleteUser(3); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthenticated delete should fail: %v", err)
	}

	if err := user.deleteUser(3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin delete should fail: %v", err)
	}

	// Admins cannot delete themselves, regardless of admin status.
	if err := admin.deleteUser(1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self delete should fail: %v", err)
	}

	if err := admin.deleteUser(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting missing user should 404: %v", err)
	}

	if err := admin.deleteUser(3); err != nil {
		t.Fatal(err)
	}

	if _, err := anon.getUser(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user should be gone: %v", err)
	}
}
