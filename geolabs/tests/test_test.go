package tests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListTests(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	require.NoError(t, err)

	test, err := c.createTest(company.Id, testArgs{
		Name:        "Dynamic Cone Penetrometer (DCP) assessment",
		Description: "DCP test to determine soil strength",
		TestType:    "Geotechnical",
		TestMethod:  "AS1289.6.3.1",
	})
	require.NoError(t, err)
	assert.NotZero(t, test.Id)
	assert.Equal(t, company.Id, test.Company.Id)

	// Duplicate test names within a company are allowed.
	_, err = c.createTest(company.Id, testArgs{Name: "Dynamic Cone Penetrometer (DCP) assessment"})
	assert.NoError(t, err)

	tests, err := c.listCompanyTests(company.Id)
	require.NoError(t, err)
	assert.Len(t, tests, 2)

	_, err = c.listCompanyTests(42)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := c.getTest(test.Id)
	require.NoError(t, err)
	assert.Equal(t, "AS1289.6.3.1", got.TestMethod)

	_, err = c.getTest(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkUnlinkDeleteScenario(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	admin, err := env.newUser("admin1", true)
	if err != nil {
		t.Fatal(err)
	}

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	project, err := c.createProject(projectArgs{
		Name: "p1", Budget: 1000, Client: "client", CompanyId: company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	test, err := c.createTest(company.Id, testArgs{Name: "t1"})
	if err != nil {
		t.Fatal(err)
	}

	linked, err := c.linkTest(project.Id, test.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(linked.Projects) != 1 || linked.Projects[0].Id != project.Id {
		t.Fatalf("linked test should list the project, got %v", linked.Projects)
	}

	// Linking the same pair twice is rejected.
	if _, err := c.linkTest(project.Id, test.Id); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate link should conflict: %v", err)
	}

	if err := admin.deleteTest(test.Id); err == nil {
		t.Fatal("deleting a linked test should be blocked")
	}

	unlinked, err := admin.unlinkTest(project.Id, test.Id)
	if err != nil {
		t.Fatal(err)
	}
	if unlinked.Project.Id != project.Id || unlinked.Test.Id != test.Id {
		t.Fatalf("invalid unlink response %v", unlinked)
	}
	if len(unlinked.Test.Projects) != 0 {
		t.Fatalf("unlinked test should have no projects, got %v", unlinked.Test.Projects)
	}

	// Unlinking a pair that is not linked is an error.
	if _, err := admin.unlinkTest(project.Id, test.Id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unlinking missing link should fail: %v", err)
	}

	if err := admin.deleteTest(test.Id); err != nil {
		t.Fatal(err)
	}

	if _, err := c.getTest(test.Id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("test should be gone: %v", err)
	}
}

func TestLinkMissingProjectOrTest(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	project, err := c.createProject(projectArgs{
		Name: "p1", Budget: 1000, Client: "client", CompanyId: company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	test, err := c.createTest(company.Id, testArgs{Name: "t1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.linkTest(42, test.Id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("link with missing project should fail: %v", err)
	}
	if _, err := c.linkTest(project.Id, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("link with missing test should fail: %v", err)
	}
}

func TestDeleteTestPermissions(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	test, err := c.createTest(company.Id, testArgs{Name: "t1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.deleteTest(test.Id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthenticated delete should fail: %v", err)
	}

	user, err := env.newUser("user1", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := user.deleteTest(test.Id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin delete should fail: %v", err)
	}

	admin, err := env.newUser("admin1", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.deleteTest(test.Id); err != nil {
		t.Fatal(err)
	}
}
