package tests

import (
	"fmt"
	"testing"

	"geolabs_api/geolabs/auth"
	"geolabs_api/geolabs/schema"
	"geolabs_api/geolabs/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testSecret = []byte("290zcv02ai249")

type testEnv struct {
	platform services.Platform
	api      chi.Router
	db       *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllTables()...)
	if err != nil {
		t.Fatal(err)
	}

	platform := services.NewPlatform(db, auth.NewJwtManager(testSecret))

	return &testEnv{platform: platform, api: platform.Routes(), db: db}
}

func (e *testEnv) newClient() client {
	return client{api: e.api}
}

// newUser registers a user and logs them in.
func (e *testEnv) newUser(username string, admin bool) (client, error) {
	c := e.newClient()
	err := c.register(registerInfo{
		Username: username,
		Email:    username + "@mail.com",
		Password: username + "_password",
		IsAdmin:  admin,
	})
	if err != nil {
		return client{}, err
	}

	err = c.login(username, username+"_password")
	if err != nil {
		return client{}, err
	}

	return c, nil
}

// newCompany creates a company with unique name and registration number.
func (e *testEnv) newCompany(name string) (services.CompanyInfo, error) {
	c := e.newClient()
	return c.createCompany(companyArgs{
		Name:               name,
		RegistrationNumber: fmt.Sprintf("REG-%v", name),
		IndustrySector:     "Geotechnical Engineering",
		Services:           "Soil Testing",
	})
}
