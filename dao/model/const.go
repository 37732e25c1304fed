// Enum-like string types mirroring the database check constraints.
// Values are stored as varchar so dashboards can group on them directly.
package model

// User role on the platform
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleApprover Role = "project-approver"

	// RolePublic is a routing marker, never persisted: an operation tagged
	// with it requires no authentication at all.
	RolePublic Role = "public"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type UserPrefix string

const (
	PrefixMaster UserPrefix = "master"
	PrefixMiss   UserPrefix = "miss"
	PrefixMr     UserPrefix = "mr"
	PrefixMrs    UserPrefix = "mrs"
	PrefixMs     UserPrefix = "ms"
)

type EducationLevel string

const (
	EducationElementary     EducationLevel = "elementary"
	EducationSecondary      EducationLevel = "secondary"
	EducationBachelor       EducationLevel = "bachelor"
	EducationMaster         EducationLevel = "master"
	EducationDoctoral       EducationLevel = "doctoral"
	EducationVocationalCert EducationLevel = "vocational_certificate"
	EducationHighVocational EducationLevel = "high_vocational_certificate"
)

// SDG classification (UN goals 1-17)
type SDGType string

// SDGTypes lists every valid SDG classification.
var SDGTypes = []SDGType{
	"SDG1", "SDG2", "SDG3", "SDG4", "SDG5", "SDG6", "SDG7", "SDG8", "SDG9",
	"SDG10", "SDG11", "SDG12", "SDG13", "SDG14", "SDG15", "SDG16", "SDG17",
}

type ProjectType string

var ProjectTypes = []ProjectType{
	"energy_and_environment",
	"construction_and_infrastructure",
	"agriculture_and_food",
	"materials_and_minerals",
	"finance_and_investment",
	"technology_and_innovation",
	"medicine_and_health",
	"human_resource_development",
	"manufacturing_and_automotive",
	"electronics_and_retail",
	"real_estate_and_urban_development",
	"media_and_entertainment",
	"tourism_and_services",
	"society_and_community",
}

type ContentCategory string

var ContentCategories = []ContentCategory{
	"cybersecurity",
	"frontend_development",
	"backend_development",
	"fullstack_development",
	"food",
	"fashion",
	"language",
}

func ValidSDGType(s SDGType) bool {
	for _, v := range SDGTypes {
		if v == s {
			return true
		}
	}
	return false
}

func ValidProjectType(p ProjectType) bool {
	for _, v := range ProjectTypes {
		if v == p {
			return true
		}
	}
	return false
}

func ValidContentCategory(c ContentCategory) bool {
	for _, v := range ContentCategories {
		if v == c {
			return true
		}
	}
	return false
}
