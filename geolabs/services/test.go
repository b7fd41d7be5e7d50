package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"geolabs_api/geolabs/auth"
	"geolabs_api/geolabs/schema"
	"geolabs_api/geolabs/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type TestService struct {
	db  *gorm.DB
	jwt *auth.JwtManager
}

// Routes covers the /test/{test_id} endpoints. The company-scoped list and
// create handlers, and the project link handlers, are mounted by the company
// and project services under their own prefixes.
func (s *TestService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{test_id}", func(r chi.Router) {
		r.Get("/", s.Get)

		r.Group(func(r chi.Router) {
			r.Use(s.jwt.Middleware()...)
			r.Use(auth.AdminOnly())

			r.Delete("/", s.Delete)
		})
	})

	return r
}

type TestInfo struct {
	TestSummary
	Company  CompanySummary   `json:"company"`
	Projects []ProjectSummary `json:"projects"`
}

func convertToTestInfo(test schema.Test, db *gorm.DB) (TestInfo, error) {
	company, err := schema.GetCompany(test.CompanyId, db)
	if err != nil {
		return TestInfo{}, CodedError(err, http.StatusInternalServerError)
	}

	projects, err := schema.GetTestProjects(test.Id, db)
	if err != nil {
		return TestInfo{}, CodedError(err, http.StatusInternalServerError)
	}

	return TestInfo{
		TestSummary: testSummary(test),
		Company:     companySummary(company),
		Projects:    projectSummaries(projects),
	}, nil
}

func (s *TestService) ListForCompany(w http.ResponseWriter, r *http.Request) {
	companyId, err := utils.URLParamUint(r, "company_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := checkCompanyExists(s.db, companyId); err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	var tests []schema.Test
	result := s.db.Find(&tests, "company_id = ?", companyId)
	if result.Error != nil {
		slog.Error("sql error listing tests for company", "company_id", companyId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing tests: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]TestInfo, 0, len(tests))
	for _, test := range tests {
		info, err := convertToTestInfo(test, s.db)
		if err != nil {
			http.Error(w, err.Error(), GetResponseCode(err))
			return
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

type createTestRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TestType    string `json:"test_type"`
	TestMethod  string `json:"test_method"`
}

func (s *TestService) CreateForCompany(w http.ResponseWriter, r *http.Request) {
	companyId, err := utils.URLParamUint(r, "company_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params createTestRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" {
		http.Error(w, "test name must be specified", http.StatusBadRequest)
		return
	}

	newTest := schema.Test{
		Name:        params.Name,
		Description: params.Description,
		TestType:    params.TestType,
		TestMethod:  params.TestMethod,
		CompanyId:   companyId,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkCompanyExists(txn, companyId); err != nil {
			return err
		}

		// Tests with duplicate names are allowed within a company.
		result := txn.Create(&newTest)
		if result.Error != nil {
			slog.Error("sql error creating new test", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating test: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created test", "test_id", newTest.Id, "company_id", companyId)

	info, err := convertToTestInfo(newTest, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

func (s *TestService) Get(w http.ResponseWriter, r *http.Request) {
	testId, err := utils.URLParamUint(r, "test_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	test, err := schema.GetTest(testId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrTestNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting test: %v", err), http.StatusInternalServerError)
		return
	}

	info, err := convertToTestInfo(test, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

func (s *TestService) Delete(w http.ResponseWriter, r *http.Request) {
	testId, err := utils.URLParamUint(r, "test_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkTestExists(txn, testId); err != nil {
			return err
		}

		var count int64
		result := txn.Model(&schema.ProjectTest{}).Where("test_id = ?", testId).Count(&count)
		if result.Error != nil {
			slog.Error("sql error counting test links", "test_id", testId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if count > 0 {
			return CodedError(errors.New("could not delete test, make sure test is not associated with any projects, then try again"), http.StatusBadRequest)
		}

		result = txn.Delete(&schema.Test{Id: testId})
		if result.Error != nil {
			slog.Error("sql error deleting test", "test_id", testId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting test: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deleted test", "test_id", testId)

	utils.WriteMessage(w, "Test deleted.")
}

func (s *TestService) Link(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUint(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	testId, err := utils.URLParamUint(r, "test_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var test schema.Test

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkProjectExists(txn, projectId); err != nil {
			return err
		}

		test, err = schema.GetTest(testId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrTestNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		_, err := schema.GetProjectTest(projectId, testId, txn)
		if err == nil {
			return CodedError(errors.New("test is already linked to this project"), http.StatusConflict)
		}
		if !errors.Is(err, schema.ErrProjectTestNotFound) {
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Create(&schema.ProjectTest{ProjectId: projectId, TestId: testId})
		if result.Error != nil {
			slog.Error("sql error creating project test link", "project_id", projectId, "test_id", testId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error linking test to project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("linked test to project", "project_id", projectId, "test_id", testId)

	info, err := convertToTestInfo(test, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

type unlinkResponse struct {
	Message string      `json:"message"`
	Project ProjectInfo `json:"project"`
	Test    TestInfo    `json:"test"`
}

func (s *TestService) Unlink(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUint(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	testId, err := utils.URLParamUint(r, "test_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var project schema.Project
	var test schema.Test

	err = s.db.Transaction(func(txn *gorm.DB) error {
		project, err = schema.GetProject(projectId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrProjectNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		test, err = schema.GetTest(testId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrTestNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		// Removing a link that does not exist is an error, not a no-op.
		if _, err := schema.GetProjectTest(projectId, testId, txn); err != nil {
			if errors.Is(err, schema.ErrProjectTestNotFound) {
				return CodedError(err, http.StatusNotFound)
			}
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Delete(&schema.ProjectTest{ProjectId: projectId, TestId: testId})
		if result.Error != nil {
			slog.Error("sql error deleting project test link", "project_id", projectId, "test_id", testId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error unlinking test from project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("unlinked test from project", "project_id", projectId, "test_id", testId)

	projectInfo, err := convertToProjectInfo(project, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	testInfo, err := convertToTestInfo(test, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, unlinkResponse{
		Message: "Test removed from project.",
		Project: projectInfo,
		Test:    testInfo,
	})
}
