package analysis

// Schema returns the feature order a model is evaluated with: its declared names, or the
// fallback order when it declares none.
func Schema(declared, fallback []string) []string {
	if len(declared) > 0 {
		return declared
	}
	return fallback
}

// BuildVector lays values out in schema order. Names missing from values become 0.
func BuildVector(names []string, values map[string]float64, fallback []string) []float64 {
	schema := Schema(names, fallback)
	vec := make([]float64, len(schema))
	for i, name := range schema {
		vec[i] = values[name]
	}
	return vec
}
