package api

import (
	"github.com/ZanzyTHEbar/academic-risk-predictor/internal/model"
)

// ModelInfo describes a loaded model
type ModelInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Path     string   `json:"path"`
	Trees    int      `json:"trees"`
	Width    int      `json:"width"`
	Declared bool     `json:"declares_features"`
	Features []string `json:"features"`
	Classes  []int    `json:"classes,omitempty"`
}

// DescribeModel summarises a forest. features is the order the analyzer evaluates it with,
// which is the declared order or the fallback when the forest declares none.
func DescribeModel(name, path string, f *model.Forest, features []string) ModelInfo {
	return ModelInfo{
		Name:     name,
		Kind:     string(f.Kind),
		Path:     path,
		Trees:    len(f.Trees),
		Width:    f.NumFeatures(),
		Declared: len(f.Features()) > 0,
		Features: features,
		Classes:  f.Classes,
	}
}
