package output

import (
	"encoding/json"
	"io"

	"github.com/CodMac/coupling-lens/model"
)

// DependencyCount module-sorted-dependencies-list.json 中的一条记录
type DependencyCount struct {
	Name         string `json:"name"`
	Dependencies int    `json:"dependencies"`
}

// DependentCount module-sorted-dependent-list.json 中的一条记录
type DependentCount struct {
	Name       string `json:"name"`
	Dependents int    `json:"dependents"`
}

func DependencyCounts(list model.RankedList) []DependencyCount {
	out := make([]DependencyCount, 0, len(list))
	for _, e := range list {
		out = append(out, DependencyCount{Name: e.Name, Dependencies: e.Count})
	}
	return out
}

func DependentCounts(list model.RankedList) []DependentCount {
	out := make([]DependentCount, 0, len(list))
	for _, e := range list {
		out = append(out, DependentCount{Name: e.Name, Dependents: e.Count})
	}
	return out
}

// WriteJSON 两空格缩进
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
