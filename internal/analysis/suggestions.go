package analysis

// Suggestion messages, emitted in this order
const (
	SuggestAttendance      = "Improve your attendance to at least 85% for better academic performance."
	SuggestCGPA            = "Focus on improving your CGPA through consistent study habits."
	SuggestLibraryUsage    = "Increase library usage to at least 20 hours/month for better research skills."
	SuggestInternships     = "Consider applying for internships to gain practical experience."
	SuggestCertificates    = "Earn more certifications to enhance your profile."
	SuggestProjects        = "Get involved in projects to develop practical skills."
	SuggestExtraCurricular = "Participate in more extracurricular activities for a balanced profile."
	SuggestKeepGoing       = "Great job! Keep maintaining your excellent academic profile."
)

type suggestionRule struct {
	applies func(RawInputs) bool
	message string
}

var suggestionRules = []suggestionRule{
	{func(r RawInputs) bool { return r.Attendance < 80 }, SuggestAttendance},
	{func(r RawInputs) bool { return r.CGPA < 7.0 }, SuggestCGPA},
	{func(r RawInputs) bool { return r.LibraryUsage < 20 }, SuggestLibraryUsage},
	{func(r RawInputs) bool { return r.Internships < 1 }, SuggestInternships},
	{func(r RawInputs) bool { return r.Certificates < 2 }, SuggestCertificates},
	{func(r RawInputs) bool { return r.ProjectInvolvement < 1 }, SuggestProjects},
	{func(r RawInputs) bool { return r.ExtraCurricular < 5 }, SuggestExtraCurricular},
}

// Suggestions returns advice for every weak area of the raw inputs, or a single
// congratulation when there is none. The score does not influence the result.
func Suggestions(raw RawInputs, _ float64) []string {
	out := make([]string, 0, len(suggestionRules))
	for _, rule := range suggestionRules {
		if rule.applies(raw) {
			out = append(out, rule.message)
		}
	}
	if len(out) == 0 {
		out = append(out, SuggestKeepGoing)
	}
	return out
}

// RiskLevelFromScore bands a 0-10 score.
func RiskLevelFromScore(score float64) string {
	switch {
	case score >= 8:
		return "Low Risk"
	case score >= 6:
		return "Moderate Risk"
	case score >= 4:
		return "High Risk"
	default:
		return "Critical Risk"
	}
}

// MessageFromScore returns the encouragement shown next to a predicted score.
func MessageFromScore(score float64) string {
	switch {
	case score >= 8:
		return "Excellent! You're on track for outstanding performance."
	case score >= 6:
		return "Good progress! Keep working to improve further."
	case score >= 4:
		return "You need to focus more on your academics and activities."
	default:
		return "Urgent attention needed! Please seek guidance from your advisor."
	}
}

var riskLabels = []string{
	"Critical: Your profile needs urgent attention. Immediate action is required.",
	"Warning: You are at high risk. Significant improvement is needed.",
	"You're at moderate risk. Let’s work on strengthening your profile.",
	"Good progress, but there's room for improvement in some areas.",
	"Excellent! Your activity score reflects outstanding academic and extracurricular balance.",
}

// UnknownRiskLabel is reported for class indices outside the label table.
const UnknownRiskLabel = "Unknown"

// RiskLabel maps a classifier output to its text.
func RiskLabel(idx int) string {
	if idx < 0 || idx >= len(riskLabels) {
		return UnknownRiskLabel
	}
	return riskLabels[idx]
}
