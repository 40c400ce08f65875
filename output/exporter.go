package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
)

type OutType string

const (
	JSON      OutType = "json"      // module-map.json + 两个排名列表
	DOT       OutType = "dot"       // module-graph.dot
	Clustered OutType = "clustered" // module-graph-clustered.dot
	JsonL     OutType = "jsonl"     // edges.jsonl
	Mermaid   OutType = "mermaid"   // visualization.html
)

const (
	MapFile              = "module-map.json"
	GraphFile            = "module-graph.dot"
	ClusteredGraphFile   = "module-graph-clustered.dot"
	DependentListFile    = "module-sorted-dependent-list.json"
	DependenciesListFile = "module-sorted-dependencies-list.json"
	EdgesFile            = "edges.jsonl"
	MermaidFile          = "visualization.html"
)

var ErrUnknownFormat = errors.New("unknown output format")

// AllFormats 默认输出的全部格式
func AllFormats() []OutType {
	return []OutType{JSON, DOT, Clustered, JsonL, Mermaid}
}

func ParseOutType(s string) (OutType, error) {
	switch t := OutType(strings.ToLower(strings.TrimSpace(s))); t {
	case JSON, DOT, Clustered, JsonL, Mermaid:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

type Exporter struct {
	outputDir string
	formats   []OutType
	logger    *slog.Logger
}

func NewExporter(outputDir string, formats []OutType, logger *slog.Logger) *Exporter {
	if len(formats) == 0 {
		formats = AllFormats()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{outputDir: outputDir, formats: formats, logger: logger}
}

// Export 按配置的格式写出全部文件，返回写出的文件路径。
// files 为类名到源文件的映射，仅用于 Mermaid 分组，可为 nil。
func (e *Exporter) Export(p *model.Program, files map[string]string) ([]string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	write := func(name string, fn func(w io.Writer) error) error {
		path := filepath.Join(e.outputDir, name)
		if err := writeFile(path, fn); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, format := range e.formats {
		var err error
		switch format {
		case JSON:
			err = e.exportJSON(p, write)
		case DOT:
			err = write(GraphFile, func(w io.Writer) error {
				_, err := io.WriteString(w, RenderDOT(p))
				return err
			})
		case Clustered:
			err = write(ClusteredGraphFile, func(w io.Writer) error {
				_, err := io.WriteString(w, RenderClusteredDOT(p))
				return err
			})
		case JsonL:
			err = write(EdgesFile, func(w io.Writer) error {
				n, err := WriteEdges(w, p)
				e.logger.Debug("edges exported", slog.Int("edges", n))
				return err
			})
		case Mermaid:
			err = write(MermaidFile, func(w io.Writer) error {
				nodes, rels, err := ExportMermaidHTML(w, p, files)
				e.logger.Debug("mermaid exported", slog.Int("nodes", nodes), slog.Int("edges", rels))
				return err
			})
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (e *Exporter) exportJSON(p *model.Program, write func(string, func(io.Writer) error) error) error {
	if err := write(MapFile, func(w io.Writer) error { return WriteJSON(w, p) }); err != nil {
		return err
	}
	dependents := DependentCounts(coupling.RankByDependents(p))
	if err := write(DependentListFile, func(w io.Writer) error { return WriteJSON(w, dependents) }); err != nil {
		return err
	}
	dependencies := DependencyCounts(coupling.RankByDependencies(p))
	return write(DependenciesListFile, func(w io.Writer) error { return WriteJSON(w, dependencies) })
}

func writeFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
