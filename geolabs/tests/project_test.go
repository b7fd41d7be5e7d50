package tests

import (
	"errors"
	"testing"
)

func TestCreateProject(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	project, err := c.createProject(projectArgs{
		Name: "p1", Budget: 56000, Description: "desc", Client: "client", CompanyId: company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}
	if project.Id == 0 || project.Company.Id != company.Id || project.Company.Name != "company1" {
		t.Fatalf("invalid project %v", project)
	}
	if len(project.Tests) != 0 {
		t.Fatalf("new project should have no tests, got %v", project.Tests)
	}
}

func TestCreateProjectMissingCompany(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	_, err := c.createProject(projectArgs{
		Name: "p1", Budget: 1000, Client: "client", CompanyId: 42,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found: %v", err)
	}

	projects, err := c.listProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 0 {
		t.Fatalf("no project row should be persisted, got %v", projects)
	}
}

func TestCreateDuplicateProject(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	args := projectArgs{Name: "p1", Budget: 1000, Description: "desc", Client: "client", CompanyId: company.Id}

	if _, err := c.createProject(args); err != nil {
		t.Fatal(err)
	}

	if _, err := c.createProject(args); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate project should conflict: %v", err)
	}

	// A different description makes the project distinct.
	args.Description = "other desc"
	if _, err := c.createProject(args); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertProject(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	project, err := c.createProject(projectArgs{
		Name: "p1", Budget: 1000, Description: "desc", Client: "client", CompanyId: company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := c.upsertProject(project.Id, projectArgs{
		Name: "p1 updated", Budget: 2000, Description: "new desc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Id != project.Id || updated.Name != "p1 updated" || updated.Budget != 2000 {
		t.Fatalf("invalid upserted project %v", updated)
	}

	got, err := c.getProject(project.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != project.Id || got.Name != "p1 updated" || got.Budget != 2000 || got.Description != "new desc" {
		t.Fatalf("upsert did not persist: %v", got)
	}
	if got.Company.Id != company.Id {
		t.Fatalf("upsert must not change the owning company: %v", got.Company)
	}
}

func TestUpsertProjectCreatesUnderSuppliedId(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	company, err := env.newCompany("company1")
	if err != nil {
		t.Fatal(err)
	}

	created, err := c.upsertProject(77, projectArgs{
		Name: "p1", Budget: 1000, Client: "client", CompanyId: company.Id,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Id != 77 {
		t.Fatalf("project should take the path supplied id, got %d", created.Id)
	}

	got, err := c.getProject(77)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "p1" || got.Company.Id != company.Id {
		t.Fatalf("invalid created project %v", got)
	}
}

func TestDeleteProjectPermissions(t *testing.T) {
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

	if err := c.deleteProject(project.Id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthenticated delete should fail: %v", err)
	}

	user, err := env.newUser("user1", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := user.deleteProject(project.Id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non admin delete should fail: %v", err)
	}

	admin, err := env.newUser("admin1", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.deleteProject(project.Id); err != nil {
		t.Fatal(err)
	}

	if _, err := c.getProject(project.Id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("project should be gone: %v", err)
	}
}
