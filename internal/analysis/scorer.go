package analysis

// fieldWeights sum to 1.0
var fieldWeights = map[string]float64{
	FieldAttendance:         0.15,
	FieldCGPA:               0.20,
	FieldCertificates:       0.10,
	FieldInternships:        0.15,
	FieldExtraCurricular:    0.05,
	FieldLibraryUsage:       0.10,
	FieldProjectInvolvement: 0.15,
	FieldGPASem1:            0.05,
	FieldGPASem2:            0.05,
}

// ActivityScore is the weighted sum of the scaled fields rounded to two decimals. It is not
// clamped: out-of-range inputs produce out-of-range scores.
func ActivityScore(s ScaledFields) float64 {
	values := s.Values()
	sum := 0.0
	for _, name := range FieldNames {
		sum += values[name] * fieldWeights[name]
	}
	return round2(sum)
}
