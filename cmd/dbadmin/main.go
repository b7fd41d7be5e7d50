// dbadmin runs the one-shot administrative database commands: creating the
// schema, dropping it, and seeding fixture data. It is meant to be run while
// the api is not serving traffic.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"geolabs_api/geolabs/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "0_initial_schema",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(schema.AllTables()...)
			},
			Rollback: func(txn *gorm.DB) error {
				return txn.Migrator().DropTable(schema.AllTables()...)
			},
		},
	}
}

func createTables(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	slog.Info("tables created")
	return nil
}

func dropTables(db *gorm.DB) error {
	if err := db.Migrator().DropTable(schema.AllTables()...); err != nil {
		return fmt.Errorf("error dropping tables: %w", err)
	}
	slog.Info("tables dropped")
	return nil
}

type fixtureCompany struct {
	Name               string `yaml:"name"`
	RegistrationNumber string `yaml:"registration_number"`
	IndustrySector     string `yaml:"industry_sector"`
	Services           string `yaml:"services"`
}

type fixtureUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	IsAdmin  bool   `yaml:"is_admin"`
	Company  string `yaml:"company"`
}

type fixtureProject struct {
	Name        string  `yaml:"name"`
	Budget      float64 `yaml:"budget"`
	Description string  `yaml:"description"`
	Client      string  `yaml:"client"`
	Company     string  `yaml:"company"`
}

type fixtureTest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	TestType    string `yaml:"test_type"`
	TestMethod  string `yaml:"test_method"`
	Company     string `yaml:"company"`
}

type fixtureLink struct {
	Project string `yaml:"project"`
	Test    string `yaml:"test"`
}

type fixtures struct {
	Companies []fixtureCompany `yaml:"companies"`
	Users     []fixtureUser    `yaml:"users"`
	Projects  []fixtureProject `yaml:"projects"`
	Tests     []fixtureTest    `yaml:"tests"`
	Links     []fixtureLink    `yaml:"links"`
}

// seedTables inserts the fixture data in dependency order. Fixture entries
// reference companies, projects, and tests by name rather than id.
func seedTables(db *gorm.DB, fixtureFile string) error {
	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return fmt.Errorf("error reading fixture file '%v': %w", fixtureFile, err)
	}

	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("error parsing fixture file '%v': %w", fixtureFile, err)
	}

	return db.Transaction(func(txn *gorm.DB) error {
		companyIds := make(map[string]uint)
		for _, c := range f.Companies {
			company := schema.Company{
				Name:               c.Name,
				RegistrationNumber: c.RegistrationNumber,
				IndustrySector:     c.IndustrySector,
				Services:           c.Services,
			}
			if result := txn.Create(&company); result.Error != nil {
				return fmt.Errorf("error seeding company '%v': %w", c.Name, result.Error)
			}
			companyIds[c.Name] = company.Id
		}

		lookupCompany := func(name string) (*uint, error) {
			if name == "" {
				return nil, nil
			}
			id, ok := companyIds[name]
			if !ok {
				return nil, fmt.Errorf("fixture references unknown company '%v'", name)
			}
			return &id, nil
		}

		for _, u := range f.Users {
			hashedPwd, err := bcrypt.GenerateFromPassword([]byte(u.Password), 10)
			if err != nil {
				return fmt.Errorf("error hashing password for user '%v': %w", u.Username, err)
			}
			companyId, err := lookupCompany(u.Company)
			if err != nil {
				return err
			}
			user := schema.User{
				Username:  u.Username,
				Email:     u.Email,
				Password:  hashedPwd,
				IsAdmin:   u.IsAdmin,
				CompanyId: companyId,
			}
			if result := txn.Create(&user); result.Error != nil {
				return fmt.Errorf("error seeding user '%v': %w", u.Username, result.Error)
			}
		}

		projectIds := make(map[string]uint)
		for _, p := range f.Projects {
			companyId, err := lookupCompany(p.Company)
			if err != nil {
				return err
			}
			if companyId == nil {
				return fmt.Errorf("project fixture '%v' must name a company", p.Name)
			}
			project := schema.Project{
				Name:        p.Name,
				Budget:      p.Budget,
				Description: p.Description,
				Client:      p.Client,
				CompanyId:   *companyId,
			}
			if result := txn.Create(&project); result.Error != nil {
				return fmt.Errorf("error seeding project '%v': %w", p.Name, result.Error)
			}
			projectIds[p.Name] = project.Id
		}

		testIds := make(map[string]uint)
		for _, t := range f.Tests {
			companyId, err := lookupCompany(t.Company)
			if err != nil {
				return err
			}
			if companyId == nil {
				return fmt.Errorf("test fixture '%v' must name a company", t.Name)
			}
			test := schema.Test{
				Name:        t.Name,
				Description: t.Description,
				TestType:    t.TestType,
				TestMethod:  t.TestMethod,
				CompanyId:   *companyId,
			}
			if result := txn.Create(&test); result.Error != nil {
				return fmt.Errorf("error seeding test '%v': %w", t.Name, result.Error)
			}
			testIds[t.Name] = test.Id
		}

		for _, l := range f.Links {
			projectId, ok := projectIds[l.Project]
			if !ok {
				return fmt.Errorf("link fixture references unknown project '%v'", l.Project)
			}
			testId, ok := testIds[l.Test]
			if !ok {
				return fmt.Errorf("link fixture references unknown test '%v'", l.Test)
			}
			link := schema.ProjectTest{ProjectId: projectId, TestId: testId}
			if result := txn.Create(&link); result.Error != nil {
				return fmt.Errorf("error seeding link '%v' -> '%v': %w", l.Project, l.Test, result.Error)
			}
		}

		slog.Info("tables seeded",
			"companies", len(f.Companies), "users", len(f.Users),
			"projects", len(f.Projects), "tests", len(f.Tests), "links", len(f.Links))
		return nil
	})
}

func main() {
	envFile := flag.String("env-file", "", "optional .env file to load variables from")
	fixtureFile := flag.String("fixtures", "fixtures/seed.yaml", "fixture file for the seed command")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: dbadmin [flags] create|drop|seed")
	}

	if *envFile != "" {
		err := godotenv.Load(*envFile)
		if err != nil {
			log.Fatalf("error loading .env file '%v': %v", *envFile, err)
		}
	}

	databaseUri := os.Getenv("DATABASE_URI")
	if databaseUri == "" {
		log.Fatal("missing required env variable DATABASE_URI")
	}

	db, err := gorm.Open(postgres.Open(databaseUri), &gorm.Config{})
	if err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "create":
		err = createTables(db)
	case "drop":
		err = dropTables(db)
	case "seed":
		err = seedTables(db, *fixtureFile)
	default:
		log.Fatalf("unknown command '%v', expected create, drop, or seed", cmd)
	}

	if err != nil {
		log.Fatal(err)
	}
}
