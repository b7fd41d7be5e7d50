package services

import (
	"log"
	"net/http"
	"os"

	"geolabs_api/geolabs/auth"
	"geolabs_api/geolabs/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Platform wires the resource services into a single served API.
type Platform struct {
	company CompanyService
	project ProjectService
	test    TestService
	user    UserService

	db *gorm.DB
}

func NewPlatform(db *gorm.DB, jwt *auth.JwtManager) Platform {
	test := TestService{db: db, jwt: jwt}

	return Platform{
		company: CompanyService{db: db, jwt: jwt, test: &test},
		project: ProjectService{db: db, jwt: jwt, test: &test},
		test:    test,
		user:    UserService{db: db, jwt: jwt},
		db:      db,
	}
}

func (p *Platform) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/company", p.company.Routes())
	r.Mount("/project", p.project.Routes())
	r.Mount("/test", p.test.Routes())
	r.Mount("/", p.user.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJsonResponse(w, struct{}{})
	})

	return r
}
