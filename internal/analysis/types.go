package analysis

// Field keys accepted in prediction requests.
const (
	FieldAttendance         = "attendance"
	FieldCGPA               = "cgpa"
	FieldCertificates       = "certificates"
	FieldInternships        = "internships"
	FieldExtraCurricular    = "extra_curricular"
	FieldLibraryUsage       = "library_usage"
	FieldProjectInvolvement = "project_involvement"
	FieldGPASem1            = "gpa_sem1"
	FieldGPASem2            = "gpa_sem2"

	// FeatureActivityScore is the derived feature only the classifier sees
	FeatureActivityScore = "activity_score"
)

// FieldNames is the natural field order. It is the regressor's fallback schema when the model
// declares no feature names.
var FieldNames = []string{
	FieldAttendance,
	FieldCGPA,
	FieldCertificates,
	FieldInternships,
	FieldExtraCurricular,
	FieldLibraryUsage,
	FieldProjectInvolvement,
	FieldGPASem1,
	FieldGPASem2,
}

// ClassifierFieldNames is the classifier's fallback schema.
var ClassifierFieldNames = append(append([]string(nil), FieldNames...), FeatureActivityScore)

// Fields holds one value per request field.
type Fields struct {
	Attendance         float64 `json:"attendance"`
	CGPA               float64 `json:"cgpa"`
	Certificates       float64 `json:"certificates"`
	Internships        float64 `json:"internships"`
	ExtraCurricular    float64 `json:"extra_curricular"`
	LibraryUsage       float64 `json:"library_usage"`
	ProjectInvolvement float64 `json:"project_involvement"`
	GPASem1            float64 `json:"gpa_sem1"`
	GPASem2            float64 `json:"gpa_sem2"`
}

// Values returns the fields keyed by request name.
func (f Fields) Values() map[string]float64 {
	return map[string]float64{
		FieldAttendance:         f.Attendance,
		FieldCGPA:               f.CGPA,
		FieldCertificates:       f.Certificates,
		FieldInternships:        f.Internships,
		FieldExtraCurricular:    f.ExtraCurricular,
		FieldLibraryUsage:       f.LibraryUsage,
		FieldProjectInvolvement: f.ProjectInvolvement,
		FieldGPASem1:            f.GPASem1,
		FieldGPASem2:            f.GPASem2,
	}
}

func (f *Fields) set(name string, v float64) {
	switch name {
	case FieldAttendance:
		f.Attendance = v
	case FieldCGPA:
		f.CGPA = v
	case FieldCertificates:
		f.Certificates = v
	case FieldInternships:
		f.Internships = v
	case FieldExtraCurricular:
		f.ExtraCurricular = v
	case FieldLibraryUsage:
		f.LibraryUsage = v
	case FieldProjectInvolvement:
		f.ProjectInvolvement = v
	case FieldGPASem1:
		f.GPASem1 = v
	case FieldGPASem2:
		f.GPASem2 = v
	}
}

// RawInputs are the request values after defaults and coercion, before scaling.
type RawInputs struct {
	Fields
}

// ScaledFields are the model-ready values: attendance and library usage mapped onto a 0-10 scale.
type ScaledFields struct {
	Fields
}

// ScoreResult is the /predict_score response.
type ScoreResult struct {
	Score         float64  `json:"score"`
	ActivityScore float64  `json:"activity_score"`
	Message       string   `json:"message"`
	RiskLevel     string   `json:"risk_level"`
	Suggestions   []string `json:"suggestions"`
}

// RiskResult is the /predict_risk response.
type RiskResult struct {
	RiskLevel     string   `json:"risk_level"`
	RiskIndex     int      `json:"risk_index"`
	ActivityScore float64  `json:"activity_score"`
	Suggestions   []string `json:"suggestions"`
}
