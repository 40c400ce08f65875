package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/output"
)

func gardenProgram() *model.Program {
	p := model.NewProgram()

	ground := model.NewClassEntry()
	water := model.NewDependencyEdge("water", "Water")
	water.RecordCall("plant")
	ground.Dependencies.Set("water", water)
	p.Set("Ground", ground)

	plant := model.NewClassEntry()
	plant.Dependencies.Set("ground", model.NewDependencyEdge("ground", "Ground"))
	plant.Dependencies.Set("water", model.NewDependencyEdge("water", "Water"))
	p.Set("Plant", plant)

	p.Set("Water", model.NewClassEntry())
	coupling.InvertDependents(p)
	return p
}

func newTestServer(t *testing.T) (*Server, *[]string) {
	t.Helper()
	var paths []string
	s := New("coupling-lens", "test", func(_ context.Context, path string) (*model.Program, error) {
		paths = append(paths, path)
		if path == "broken" {
			return nil, errors.New("parse failure")
		}
		return gardenProgram(), nil
	})
	return s, &paths
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestCouplingMapHandler(t *testing.T) {
	s, paths := newTestServer(t)

	result, err := s.couplingMapHandler(context.Background(), callRequest("coupling_map", map[string]any{"path": "./src"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"./src"}, *paths)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Len(t, decoded, 3)
	assert.Contains(t, string(decoded["Ground"]), `"timesCalled": 1`)
}

func TestRankHandlers(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("Dependencies", func(t *testing.T) {
		result, err := s.rankDependenciesHandler(context.Background(), callRequest("rank_dependencies", map[string]any{"path": "."}))
		require.NoError(t, err)

		var list []output.DependencyCount
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
		assert.Equal(t, []output.DependencyCount{
			{Name: "Plant", Dependencies: 2},
			{Name: "Ground", Dependencies: 1},
			{Name: "Water", Dependencies: 0},
		}, list)
	})

	t.Run("DependentsWithLimit", func(t *testing.T) {
		result, err := s.rankDependentsHandler(context.Background(), callRequest("rank_dependents", map[string]any{"path": ".", "limit": float64(1)}))
		require.NoError(t, err)

		var list []output.DependentCount
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
		assert.Equal(t, []output.DependentCount{{Name: "Water", Dependents: 2}}, list)
	})
}

func TestDependencyGraphHandler(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.dependencyGraphHandler(context.Background(), callRequest("dependency_graph", map[string]any{"path": "."}))
	require.NoError(t, err)
	assert.Equal(t, output.RenderDOT(gardenProgram()), resultText(t, result))

	result, err = s.dependencyGraphHandler(context.Background(), callRequest("dependency_graph", map[string]any{"path": ".", "clustered": true}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "subgraph cluster_water")
}

func TestHandlerErrors(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("MissingPath", func(t *testing.T) {
		result, err := s.couplingMapHandler(context.Background(), callRequest("coupling_map", map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("AnalyzeFailure", func(t *testing.T) {
		result, err := s.rankDependentsHandler(context.Background(), callRequest("rank_dependents", map[string]any{"path": "broken"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "parse failure")
	})
}

func TestLimitList(t *testing.T) {
	list := model.RankedList{{Name: "A", Count: 2}, {Name: "B", Count: 1}}
	assert.Len(t, limitList(list, 0), 2)
	assert.Len(t, limitList(list, 1), 1)
	assert.Len(t, limitList(list, 5), 2)
	assert.Len(t, limitList(list, -1), 2)
}
