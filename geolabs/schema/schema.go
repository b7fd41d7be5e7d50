package schema

type Company struct {
	Id uint `gorm:"primaryKey"`

	Name               string `gorm:"unique;size:80;not null"`
	RegistrationNumber string `gorm:"unique;size:80;not null"`
	IndustrySector     string `gorm:"size:80;not null"`
	Services           string `gorm:"size:80;not null"`

	Projects []Project `gorm:"constraint:OnDelete:RESTRICT"`
	Tests    []Test    `gorm:"constraint:OnDelete:RESTRICT"`
	Users    []User    `gorm:"constraint:OnDelete:RESTRICT"`
}

type Project struct {
	Id uint `gorm:"primaryKey"`

	Name        string  `gorm:"size:80;not null"`
	Budget      float64 `gorm:"not null"`
	Description string  `gorm:"size:255"`
	Client      string  `gorm:"size:80;not null"`

	CompanyId uint `gorm:"not null;index"`
}

type Test struct {
	Id uint `gorm:"primaryKey"`

	Name        string `gorm:"size:80;not null"`
	Description string `gorm:"size:200"`
	TestType    string `gorm:"size:80"`
	TestMethod  string `gorm:"size:80"`

	CompanyId uint `gorm:"not null;index"`
}

// ProjectTest is one link in the many-to-many relation between projects and
// tests. The composite primary key makes (project_id, test_id) unique.
type ProjectTest struct {
	ProjectId uint `gorm:"primaryKey"`
	TestId    uint `gorm:"primaryKey"`

	Project *Project `gorm:"constraint:OnDelete:CASCADE"`
	Test    *Test    `gorm:"constraint:OnDelete:RESTRICT"`
}

func (ProjectTest) TableName() string {
	return "projects_tests"
}

type User struct {
	Id uint `gorm:"primaryKey"`

	Username string `gorm:"unique;size:80;not null"`
	Email    string `gorm:"unique;size:120;not null"`
	Password []byte `gorm:"not null"`

	IsAdmin bool `gorm:"not null;default:false"`

	CompanyId *uint `gorm:"index"`
}

// AllTables lists every entity for AutoMigrate and the dbadmin commands.
func AllTables() []interface{} {
	return []interface{}{
		&Company{}, &Project{}, &Test{}, &ProjectTest{}, &User{},
	}
}
