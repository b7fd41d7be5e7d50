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

type CompanyService struct {
	db   *gorm.DB
	jwt  *auth.JwtManager
	test *TestService
}

func (s *CompanyService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{company_id}", func(r chi.Router) {
		r.Get("/", s.Get)

		r.Group(func(r chi.Router) {
			r.Use(s.jwt.Middleware()...)
			r.Use(auth.AdminOnly())

			r.Delete("/", s.Delete)
		})

		r.Get("/test", s.test.ListForCompany)
		r.Post("/test", s.test.CreateForCompany)
	})

	return r
}

type CompanyInfo struct {
	CompanySummary
	Projects []ProjectSummary `json:"projects"`
}

func convertToCompanyInfo(company schema.Company) CompanyInfo {
	return CompanyInfo{
		CompanySummary: companySummary(company),
		Projects:       projectSummaries(company.Projects),
	}
}

func (s *CompanyService) List(w http.ResponseWriter, r *http.Request) {
	var companies []schema.Company
	result := s.db.Preload("Projects").Find(&companies)
	if result.Error != nil {
		slog.Error("sql error listing companies", "error", result.Error)
		http.Error(w, fmt.Sprintf("error listing companies: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	infos := make([]CompanyInfo, 0, len(companies))
	for _, company := range companies {
		infos = append(infos, convertToCompanyInfo(company))
	}

	utils.WriteJsonResponse(w, infos)
}

type createCompanyRequest struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	IndustrySector     string `json:"industry_sector"`
	Services           string `json:"services"`
}

func (s *CompanyService) Create(w http.ResponseWriter, r *http.Request) {
	var params createCompanyRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if params.Name == "" || params.RegistrationNumber == "" || params.IndustrySector == "" || params.Services == "" {
		http.Error(w, "name, registration_number, industry_sector, and services must be specified", http.StatusBadRequest)
		return
	}

	newCompany := schema.Company{
		Name:               params.Name,
		RegistrationNumber: params.RegistrationNumber,
		IndustrySector:     params.IndustrySector,
		Services:           params.Services,
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existingCompany schema.Company
		result := txn.Limit(1).Find(&existingCompany, "name = ? or registration_number = ?", params.Name, params.RegistrationNumber)
		if result.Error != nil {
			slog.Error("sql error checking for duplicate company", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected != 0 {
			return CodedError(fmt.Errorf("a company with that name or registration number already exists"), http.StatusConflict)
		}

		result = txn.Create(&newCompany)
		if result.Error != nil {
			slog.Error("sql error creating new company", "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error creating company: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created company", "company_id", newCompany.Id, "name", newCompany.Name)

	utils.WriteJsonResponse(w, convertToCompanyInfo(newCompany))
}

func (s *CompanyService) Get(w http.ResponseWriter, r *http.Request) {
	companyId, err := utils.URLParamUint(r, "company_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var company schema.Company
	result := s.db.Preload("Projects").First(&company, "id = ?", companyId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, schema.ErrCompanyNotFound.Error(), http.StatusNotFound)
			return
		}
		slog.Error("sql error in get company", "company_id", companyId, "error", result.Error)
		http.Error(w, fmt.Sprintf("error getting company: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, convertToCompanyInfo(company))
}

func (s *CompanyService) Delete(w http.ResponseWriter, r *http.Request) {
	companyId, err := utils.URLParamUint(r, "company_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkCompanyExists(txn, companyId); err != nil {
			return err
		}

		// Deletes are restricted, not cascading: a company with dependent
		// rows must be emptied out first.
		for _, dependent := range []struct {
			model interface{}
			name  string
		}{
			{&schema.Project{}, "projects"},
			{&schema.Test{}, "tests"},
			{&schema.User{}, "users"},
		} {
			var count int64
			result := txn.Model(dependent.model).Where("company_id = ?", companyId).Count(&count)
			if result.Error != nil {
				slog.Error("sql error counting company dependents", "company_id", companyId, "error", result.Error)
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			if count > 0 {
				return CodedError(fmt.Errorf("could not delete company, %d %v still belong to it", count, dependent.name), http.StatusBadRequest)
			}
		}

		result := txn.Delete(&schema.Company{Id: companyId})
		if result.Error != nil {
			slog.Error("sql error deleting company", "company_id", companyId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return nil
	})

	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting company: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("deleted company", "company_id", companyId)

	utils.WriteMessage(w, "Company deleted.")
}
