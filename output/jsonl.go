package output

import (
	"encoding/json"
	"io"

	"github.com/CodMac/coupling-lens/model"
)

type JSONLWriter struct {
	encoder *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{encoder: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(v interface{}) error { return w.encoder.Encode(v) }

// EdgeRecord edges.jsonl 中的一行：一条依赖边
type EdgeRecord struct {
	Source     string         `json:"source"`
	Alias      string         `json:"alias"`
	Target     string         `json:"target"`
	Internal   bool           `json:"internal"` // 目标类型是否为程序内的类
	Methods    map[string]int `json:"methods,omitempty"`
	TotalCalls int            `json:"totalCalls"`
}

// WriteEdges 按 Program 顺序逐行输出依赖边，返回行数
func WriteEdges(w io.Writer, p *model.Program) (int, error) {
	writer := NewJSONLWriter(w)
	count := 0
	var err error
	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(alias string, edge *model.DependencyEdge) {
			if err != nil {
				return
			}
			rec := EdgeRecord{
				Source:     name,
				Alias:      alias,
				Target:     edge.TargetType,
				Internal:   p.Has(edge.TargetType),
				TotalCalls: edge.TotalCalls(),
			}
			if edge.MethodCalls.Len() > 0 {
				rec.Methods = make(map[string]int, edge.MethodCalls.Len())
				edge.MethodCalls.Each(func(m string, u model.MethodUsage) { rec.Methods[m] = u.TimesCalled })
			}
			if err = writer.Write(rec); err == nil {
				count++
			}
		})
	})
	return count, err
}
