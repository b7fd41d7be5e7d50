package services

import (
	"errors"
	"log/slog"
	"net/http"

	"geolabs_api/geolabs/schema"

	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

func checkCompanyExists(txn *gorm.DB, companyId uint) error {
	if _, err := schema.GetCompany(companyId, txn); err != nil {
		if errors.Is(err, schema.ErrCompanyNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func checkProjectExists(txn *gorm.DB, projectId uint) error {
	if _, err := schema.GetProject(projectId, txn); err != nil {
		if errors.Is(err, schema.ErrProjectNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func checkTestExists(txn *gorm.DB, testId uint) error {
	if _, err := schema.GetTest(testId, txn); err != nil {
		if errors.Is(err, schema.ErrTestNotFound) {
			return CodedError(err, http.StatusNotFound)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

// Summary structs are the nested representations embedded in other resources.
// They never carry back references to their parents.

type CompanySummary struct {
	Id                 uint   `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	IndustrySector     string `json:"industry_sector"`
	Services           string `json:"services"`
}

type ProjectSummary struct {
	Id          uint    `json:"id"`
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	Client      string  `json:"client"`
}

type TestSummary struct {
	Id          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TestType    string `json:"test_type"`
	TestMethod  string `json:"test_method"`
}

func companySummary(c schema.Company) CompanySummary {
	return CompanySummary{
		Id:                 c.Id,
		Name:               c.Name,
		RegistrationNumber: c.RegistrationNumber,
		IndustrySector:     c.IndustrySector,
		Services:           c.Services,
	}
}

func projectSummary(p schema.Project) ProjectSummary {
	return ProjectSummary{
		Id:          p.Id,
		Name:        p.Name,
		Budget:      p.Budget,
		Description: p.Description,
		Client:      p.Client,
	}
}

func testSummary(t schema.Test) TestSummary {
	return TestSummary{
		Id:          t.Id,
		Name:        t.Name,
		Description: t.Description,
		TestType:    t.TestType,
		TestMethod:  t.TestMethod,
	}
}

func projectSummaries(projects []schema.Project) []ProjectSummary {
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, projectSummary(p))
	}
	return summaries
}

func testSummaries(tests []schema.Test) []TestSummary {
	summaries := make([]TestSummary, 0, len(tests))
	for _, t := range tests {
		summaries = append(summaries, testSummary(t))
	}
	return summaries
}
