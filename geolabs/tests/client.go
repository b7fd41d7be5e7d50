package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"geolabs_api/geolabs/services"

	"github.com/go-chi/chi/v5"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
		headers:  nil,
		json:     nil,
		body:     nil,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		message := strings.TrimSpace(w.Body.String())
		switch res.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, message)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, message)
		case http.StatusConflict:
			return fmt.Errorf("%w: %v", ErrConflict, message)
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, message)
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Put(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "PUT", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type registerInfo struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
	CompanyId *uint  `json:"company_id,omitempty"`
}

func (c *client) register(info registerInfo) error {
	return c.Post("/register").Json(info).Do(nil)
}

func (c *client) login(username, password string) error {
	var res struct {
		AccessToken string `json:"access_token"`
	}
	err := c.Post("/login").Json(map[string]string{"username": username, "password": password}).Do(&res)
	if err != nil {
		return err
	}
	c.authToken = res.AccessToken
	return nil
}

type companyArgs struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	IndustrySector     string `json:"industry_sector"`
	Services           string `json:"services"`
}

func (c *client) createCompany(args companyArgs) (services.CompanyInfo, error) {
	var res services.CompanyInfo
	err := c.Post("/company").Json(args).Do(&res)
	return res, err
}

func (c *client) listCompanies() ([]services.CompanyInfo, error) {
	var res []services.CompanyInfo
	err := c.Get("/company").Do(&res)
	return res, err
}

func (c *client) getCompany(id uint) (services.CompanyInfo, error) {
	var res services.CompanyInfo
	err := c.Get(fmt.Sprintf("/company/%d", id)).Do(&res)
	return res, err
}

func (c *client) deleteCompany(id uint) error {
	return c.Delete(fmt.Sprintf("/company/%d", id)).Do(nil)
}

type projectArgs struct {
	Name        string  `json:"name"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	Client      string  `json:"client"`
	CompanyId   uint    `json:"company_id"`
}

func (c *client) createProject(args projectArgs) (services.ProjectInfo, error) {
	var res services.ProjectInfo
	err := c.Post("/project").Json(args).Do(&res)
	return res, err
}

func (c *client) listProjects() ([]services.ProjectInfo, error) {
	var res []services.ProjectInfo
	err := c.Get("/project").Do(&res)
	return res, err
}

func (c *client) getProject(id uint) (services.ProjectInfo, error) {
	var res services.ProjectInfo
	err := c.Get(fmt.Sprintf("/project/%d", id)).Do(&res)
	return res, err
}

func (c *client) upsertProject(id uint, args projectArgs) (services.ProjectInfo, error) {
	var res services.ProjectInfo
	err := c.Put(fmt.Sprintf("/project/%d", id)).Json(args).Do(&res)
	return res, err
}

func (c *client) deleteProject(id uint) error {
	return c.Delete(fmt.Sprintf("/project/%d", id)).Do(nil)
}

type testArgs struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TestType    string `json:"test_type"`
	TestMethod  string `json:"test_method"`
}

func (c *client) createTest(companyId uint, args testArgs) (services.TestInfo, error) {
	var res services.TestInfo
	err := c.Post(fmt.Sprintf("/company/%d/test", companyId)).Json(args).Do(&res)
	return res, err
}

func (c *client) listCompanyTests(companyId uint) ([]services.TestInfo, error) {
	var res []services.TestInfo
	err := c.Get(fmt.Sprintf("/company/%d/test", companyId)).Do(&res)
	return res, err
}

func (c *client) getTest(id uint) (services.TestInfo, error) {
	var res services.TestInfo
	err := c.Get(fmt.Sprintf("/test/%d", id)).Do(&res)
	return res, err
}

func (c *client) deleteTest(id uint) error {
	return c.Delete(fmt.Sprintf("/test/%d", id)).Do(nil)
}

func (c *client) linkTest(projectId, testId uint) (services.TestInfo, error) {
	var res services.TestInfo
	err := c.Post(fmt.Sprintf("/project/%d/test/%d", projectId, testId)).Do(&res)
	return res, err
}

type unlinkResult struct {
	Message string               `json:"message"`
	Project services.ProjectInfo `json:"project"`
	Test    services.TestInfo    `json:"test"`
}

func (c *client) unlinkTest(projectId, testId uint) (unlinkResult, error) {
	var res unlinkResult
	err := c.Delete(fmt.Sprintf("/project/%d/test/%d", projectId, testId)).Do(&res)
	return res, err
}

func (c *client) getUser(id uint) (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get(fmt.Sprintf("/user/%d", id)).Do(&res)
	return res, err
}

func (c *client) deleteUser(id uint) error {
	return c.Delete(fmt.Sprintf("/user/%d", id)).Do(nil)
}
