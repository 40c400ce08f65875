// Package graphdb 将耦合模型导入 Neo4j，便于用 Cypher 做进一步查询。
package graphdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/CodMac/coupling-lens/model"
)

// Loader 使用批量 UNWIND 语句导入数据
type Loader struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

func NewLoader(uri, user, password, database string, logger *slog.Logger) (*Loader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{driver: driver, database: database, logger: logger}, nil
}

// Verify 检查连通性与认证
func (l *Loader) Verify(ctx context.Context) error {
	if err := l.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity: %w", err)
	}
	return nil
}

func (l *Loader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

func (l *Loader) runCypher(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if l.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(l.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, l.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

func (l *Loader) runAll(ctx context.Context, queries []string) error {
	for _, q := range queries {
		if err := l.runCypher(ctx, q, nil); err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
	}
	return nil
}

// CleanGraph 删除之前导入的节点与关系
func (l *Loader) CleanGraph(ctx context.Context) error {
	l.logger.Info("cleaning existing coupling graph")
	return l.runAll(ctx, []string{
		"MATCH ()-[r:DEPENDS_ON]->() DELETE r",
		"MATCH ()-[r:CALLS]->() DELETE r",
		"MATCH ()-[r:HAS_METHOD]->() DELETE r",
		"MATCH (n:Method) DETACH DELETE n",
		"MATCH (n:Class) DETACH DELETE n",
	})
}

func (l *Loader) CreateIndexes(ctx context.Context) error {
	l.logger.Info("creating indexes")
	return l.runAll(ctx, []string{
		"CREATE INDEX class_name IF NOT EXISTS FOR (n:Class) ON (n.name)",
		"CREATE INDEX method_key IF NOT EXISTS FOR (n:Method) ON (n.key)",
	})
}

// LoadProgram 依次导入类节点、依赖边、方法节点与调用边
func (l *Loader) LoadProgram(ctx context.Context, p *model.Program) error {
	classes := ClassRows(p)
	l.logger.Info("loading classes", slog.Int("count", len(classes)))
	err := l.runCypher(ctx,
		`UNWIND $batch AS row
		 MERGE (n:Class {name: row.name})
		 SET n.internal = row.internal, n.dependencies = row.dependencies, n.dependents = row.dependents`,
		map[string]any{"batch": classes},
	)
	if err != nil {
		return fmt.Errorf("load classes: %w", err)
	}

	deps := DependencyRows(p)
	l.logger.Info("loading dependencies", slog.Int("count", len(deps)))
	err = l.runCypher(ctx,
		`UNWIND $batch AS row
		 MATCH (a:Class {name: row.source}), (b:Class {name: row.target})
		 MERGE (a)-[r:DEPENDS_ON {alias: row.alias}]->(b)
		 SET r.type = row.target, r.calls = row.calls`,
		map[string]any{"batch": deps},
	)
	if err != nil {
		return fmt.Errorf("load dependencies: %w", err)
	}

	calls := MethodCallRows(p)
	if len(calls) == 0 {
		return nil
	}
	l.logger.Info("loading method calls", slog.Int("count", len(calls)))
	err = l.runCypher(ctx,
		`UNWIND $batch AS row
		 MATCH (a:Class {name: row.source}), (owner:Class {name: row.target})
		 MERGE (m:Method {key: row.key})
		 SET m.name = row.method, m.owner = row.target
		 MERGE (owner)-[:HAS_METHOD]->(m)
		 MERGE (a)-[r:CALLS {alias: row.alias}]->(m)
		 SET r.timesCalled = row.timesCalled`,
		map[string]any{"batch": calls},
	)
	if err != nil {
		return fmt.Errorf("load method calls: %w", err)
	}
	return nil
}

// ClassRows 程序内的类与只作为依赖类型出现的外部类型
func ClassRows(p *model.Program) []map[string]any {
	rows := make([]map[string]any, 0, p.Len())
	external := model.NewOrderedMap[string, struct{}]()
	p.Each(func(name string, entry *model.ClassEntry) {
		rows = append(rows, map[string]any{
			"name":         name,
			"internal":     true,
			"dependencies": entry.Dependencies.Len(),
			"dependents":   entry.Dependents.Len(),
		})
		entry.Dependencies.Each(func(_ string, edge *model.DependencyEdge) {
			if !p.Has(edge.TargetType) {
				external.Set(edge.TargetType, struct{}{})
			}
		})
	})
	for _, name := range external.Keys() {
		rows = append(rows, map[string]any{"name": name, "internal": false, "dependencies": 0, "dependents": 0})
	}
	return rows
}

func DependencyRows(p *model.Program) []map[string]any {
	var rows []map[string]any
	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(alias string, edge *model.DependencyEdge) {
			rows = append(rows, map[string]any{
				"source": name,
				"alias":  alias,
				"target": edge.TargetType,
				"calls":  edge.TotalCalls(),
			})
		})
	})
	return rows
}

func MethodCallRows(p *model.Program) []map[string]any {
	var rows []map[string]any
	p.Each(func(name string, entry *model.ClassEntry) {
		entry.Dependencies.Each(func(alias string, edge *model.DependencyEdge) {
			edge.MethodCalls.Each(func(method string, usage model.MethodUsage) {
				rows = append(rows, map[string]any{
					"source":      name,
					"alias":       alias,
					"target":      edge.TargetType,
					"method":      method,
					"key":         edge.TargetType + "." + method,
					"timesCalled": usage.TimesCalled,
				})
			})
		})
	})
	return rows
}
