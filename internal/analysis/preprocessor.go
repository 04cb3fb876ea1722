package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/ZanzyTHEbar/academic-risk-predictor/internal/errors"
)

// defaults applied when a field is absent from the request
var defaults = RawInputs{Fields{
	Attendance:         75,
	CGPA:               2.5,
	Certificates:       0,
	Internships:        0,
	ExtraCurricular:    5,
	LibraryUsage:       10,
	ProjectInvolvement: 0,
	GPASem1:            2.5,
	GPASem2:            2.5,
}}

// Scale divisors mapping raw attendance (percent) and library usage (hours/month) onto 0-10
const (
	attendanceScale   = 100.0
	libraryUsageScale = 60.0
)

// DefaultInputs returns the values used for absent fields.
func DefaultInputs() RawInputs {
	return defaults
}

// ParseRawInputs applies defaults and numeric coercion to a decoded JSON object. Unknown keys
// are ignored. A present field that cannot be read as a finite number is an InvalidInput error.
func ParseRawInputs(payload map[string]any) (RawInputs, error) {
	raw := defaults
	for _, name := range FieldNames {
		v, ok := payload[name]
		if !ok {
			continue
		}
		f, err := coerce(v)
		if err != nil {
			return RawInputs{}, apperrors.NewInvalidInputError(name, v)
		}
		raw.set(name, f)
	}
	return raw, nil
}

func coerce(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, err
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		f = n
	case bool:
		if t {
			f = 1
		}
	default:
		return 0, strconv.ErrSyntax
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// Normalize scales raw inputs for the models. Only attendance and library usage change.
func Normalize(raw RawInputs) ScaledFields {
	scaled := ScaledFields{raw.Fields}
	scaled.Attendance = raw.Attendance / attendanceScale * 10
	scaled.LibraryUsage = raw.LibraryUsage / libraryUsageScale * 10
	return scaled
}
