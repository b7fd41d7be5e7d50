package schema

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound     = errors.New("company not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrTestNotFound        = errors.New("test not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProjectTestNotFound = errors.New("project test link not found")
	ErrDbAccessFailed      = errors.New("db access failed")
)

func GetCompany(companyId uint, db *gorm.DB) (Company, error) {
	var company Company

	result := db.First(&company, "id = ?", companyId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return company, ErrCompanyNotFound
		}
		slog.Error("sql error in get company", "company_id", companyId, "error", result.Error)
		return company, ErrDbAccessFailed
	}

	return company, nil
}

func GetProject(projectId uint, db *gorm.DB) (Project, error) {
	var project Project

	result := db.First(&project, "id = ?", projectId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return project, ErrProjectNotFound
		}
		slog.Error("sql error in get project", "project_id", projectId, "error", result.Error)
		return project, ErrDbAccessFailed
	}

	return project, nil
}

func GetTest(testId uint, db *gorm.DB) (Test, error) {
	var test Test

	result := db.First(&test, "id = ?", testId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return test, ErrTestNotFound
		}
		slog.Error("sql error in get test", "test_id", testId, "error", result.Error)
		return test, ErrDbAccessFailed
	}

	return test, nil
}

func GetUser(userId uint, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetProjectTest(projectId, testId uint, db *gorm.DB) (ProjectTest, error) {
	var link ProjectTest

	result := db.First(&link, "project_id = ? and test_id = ?", projectId, testId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return link, ErrProjectTestNotFound
		}
		slog.Error("sql error in get project test link", "project_id", projectId, "test_id", testId, "error", result.Error)
		return link, ErrDbAccessFailed
	}

	return link, nil
}

// GetProjectTests returns the tests linked to a project via projects_tests.
func GetProjectTests(projectId uint, db *gorm.DB) ([]Test, error) {
	var tests []Test

	result := db.
		Joins("JOIN projects_tests ON projects_tests.test_id = tests.id").
		Where("projects_tests.project_id = ?", projectId).
		Find(&tests)
	if result.Error != nil {
		slog.Error("sql error listing tests for project", "project_id", projectId, "error", result.Error)
		return nil, ErrDbAccessFailed
	}

	return tests, nil
}

// GetTestProjects returns the projects linked to a test via projects_tests.
func GetTestProjects(testId uint, db *gorm.DB) ([]Project, error) {
	var projects []Project

	result := db.
		Joins("JOIN projects_tests ON projects_tests.project_id = projects.id").
		Where("projects_tests.test_id = ?", testId).
		Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing projects for test", "test_id", testId, "error", result.Error)
		return nil, ErrDbAccessFailed
	}

	return projects, nil
}
