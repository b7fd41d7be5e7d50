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

type ProjectService struct {
	db   *gorm.DB
	jwt  *auth.JwtManager
	test *TestService
}

func (s *ProjectService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{project_id}", func(r chi.Router) {
		r.Get("/", s.Get)
		r.Put("/", s.Upsert)

		r.Group(func(r chi.Router) {
			r.Use(s.jwt.Middleware()...)
			r.Use(auth.AdminOnly())

			r.Delete("/", s.Delete)
			r.Delete("/test/{test_id}", s.test.Unlink)
		})

		r.Post("/test/{test_id}", s.test.Link)
	})

	return r
}

type ProjectInfo struct {
	ProjectSummary
	Company CompanySummary `json:"company"`
	Tests   []TestSummary  `json:"tests"`
}

func convertToProjectInfo(project schema.Project, db *gorm.DB) (ProjectInfo, error) {
	company, err := schema.GetCompany(project.CompanyId, db)
	if err != nil {
		return ProjectInfo{}, CodedError(err, http.StatusInternalServerError)
	}

	tests, err := schema.GetProjectTests(project.Id, db)
	if err != nil {
		return ProjectInfo{}, CodedError(err, http.StatusInternalServerError)
	}

	return ProjectInfo{
		ProjectSummary: projectSummary(project),
		Company:        companySummary(company),
		Tests:          testSummaries(tests),
	}, nil
}

func (s *ProjectService) List(w http.ResponseWriter, r *http.Request) {
	var projects []schema.Project
	result := s.db.Find(&projects)
	if result.Error != nil {
		slog.Error("sql error listing projects", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing projects: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]ProjectInfo, 0, len(projects))
	for _, project := range projects {
		info, err := convertToProjectInfo(project, s.db)
		if err != nil {
			http.Error(w, err.Error(), GetResponseCode(err))
			return
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

type createProjectRequest struct {
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	Client      string  `json:"client"`
	CompanyId   uint    `json:"company_id"`
}

func (s *ProjectService) Create(w http.ResponseWriter, r *http.Request) {
	var params createProjectRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" || params.Client == "" || params.CompanyId == 0 {
		http.Error(w, "name, client, and company_id must be specified", http.StatusBadRequest)
		return
	}

	newProject := schema.Project{
		Name:        params.Name,
		Budget:      params.Budget,
		Description: params.Description,
		Client:      params.Client,
		CompanyId:   params.CompanyId,
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkCompanyExists(txn, params.CompanyId); err != nil {
			return err
		}

		var existingProject schema.Project
		result := txn.Limit(1).Find(&existingProject, "name = ? and company_id = ? and description = ?", params.Name, params.CompanyId, params.Description)
		if result.Error != nil {
			slog.Error("sql error checking for duplicate project", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("a project with that name already exists in this company"), http.StatusConflict)
		}

		result = txn.Create(&newProject)
		if result.Error != nil {
			slog.Error("sql error creating new project", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created project", "project_id", newProject.Id, "company_id", newProject.CompanyId)

	info, err := convertToProjectInfo(newProject, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

func (s *ProjectService) Get(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUint(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := schema.GetProject(projectId, s.db)
	if err != nil {
		if errors.Is(err, schema.ErrProjectNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("error getting project: %v", err), http.StatusInternalServerError)
		return
	}

	info, err := convertToProjectInfo(project, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

type upsertProjectRequest struct {
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	Client      string  `json:"client"`
	CompanyId   uint    `json:"company_id"`
}

// Upsert overwrites name/budget/description of an existing project, or
// creates a new project under the path-supplied id. No duplicate check runs
// on this path.
func (s *ProjectService) Upsert(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUint(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params upsertProjectRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var project schema.Project

	err = s.db.Transaction(func(txn *gorm.DB) error {
		existing, err := schema.GetProject(projectId, txn)
		if err == nil {
			existing.Name = params.Name
			existing.Budget = params.Budget
			existing.Description = params.Description
			project = existing
		} else if errors.Is(err, schema.ErrProjectNotFound) {
			if params.CompanyId == 0 {
				return CodedError(errors.New("company_id must be specified when creating a project"), http.StatusBadRequest)
			}
			if err := checkCompanyExists(txn, params.CompanyId); err != nil {
				return err
			}
			project = schema.Project{
				Id:          projectId,
				Name:        params.Name,
				Budget:      params.Budget,
				Description: params.Description,
				Client:      params.Client,
				CompanyId:   params.CompanyId,
			}
		} else {
			return CodedError(err, http.StatusInternalServerError)
		}

		result := txn.Save(&project)
		if result.Error != nil {
			slog.Error("sql error upserting project", "project_id", projectId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error updating project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("upserted project", "project_id", projectId)

	info, err := convertToProjectInfo(project, s.db)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, info)
}

func (s *ProjectService) Delete(w http.ResponseWriter, r *http.Request) {
	projectId, err := utils.URLParamUint(r, "project_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkProjectExists(txn, projectId); err != nil {
			return err
		}

		result := txn.Where("project_id = ?", projectId).Delete(&schema.ProjectTest{})
		if result.Error != nil {
			slog.Error("sql error deleting project test links", "project_id", projectId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		result = txn.Delete(&schema.Project{Id: projectId})
		if result.Error != nil {
			slog.Error("sql error deleting project", "project_id", projectId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting project: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deleted project", "project_id", projectId)

	utils.WriteMessage(w, "Project deleted.")
}
