// Package mcpserver 通过 MCP (stdio) 向代理暴露耦合分析工具。
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/CodMac/coupling-lens/coupling"
	"github.com/CodMac/coupling-lens/model"
	"github.com/CodMac/coupling-lens/output"
)

// AnalyzeFunc 分析 path 下的源码并返回耦合模型
type AnalyzeFunc func(ctx context.Context, path string) (*model.Program, error)

type Server struct {
	analyze   AnalyzeFunc
	mcpServer *server.MCPServer
}

func New(name, version string, analyze AnalyzeFunc) *Server {
	s := &Server{
		analyze:   analyze,
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
	}

	couplingMapTool := mcp.NewTool("coupling_map",
		mcp.WithDescription("Analyze constructor-injected dependencies and return the full coupling map (dependencies, called methods and dependents per class)"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source directory to analyze"),
		),
	)
	s.mcpServer.AddTool(couplingMapTool, s.couplingMapHandler)

	rankDependenciesTool := mcp.NewTool("rank_dependencies",
		mcp.WithDescription("Rank classes by number of injected dependencies (descending)"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source directory to analyze"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default: all)"),
		),
	)
	s.mcpServer.AddTool(rankDependenciesTool, s.rankDependenciesHandler)

	rankDependentsTool := mcp.NewTool("rank_dependents",
		mcp.WithDescription("Rank classes by number of classes depending on them (descending)"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source directory to analyze"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default: all)"),
		),
	)
	s.mcpServer.AddTool(rankDependentsTool, s.rankDependentsHandler)

	graphTool := mcp.NewTool("dependency_graph",
		mcp.WithDescription("Render the dependency graph in Graphviz DOT format"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source directory to analyze"),
		),
		mcp.WithBoolean("clustered",
			mcp.Description("Group called methods into one cluster per dependency type (default: false)"),
		),
	)
	s.mcpServer.AddTool(graphTool, s.dependencyGraphHandler)

	return s
}

// Serve 阻塞直到 stdin 关闭
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

func (s *Server) analyzeRequest(ctx context.Context, request mcp.CallToolRequest) (*model.Program, *mcp.CallToolResult) {
	path, err := request.RequireString("path")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	p, err := s.analyze(ctx, path)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to analyze %s: %v", path, err))
	}
	return p, nil
}

func (s *Server) couplingMapHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := s.analyzeRequest(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(p)
}

func (s *Server) rankDependenciesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := s.analyzeRequest(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	list := limitList(coupling.RankByDependencies(p), request.GetFloat("limit", 0))
	return jsonResult(output.DependencyCounts(list))
}

func (s *Server) rankDependentsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := s.analyzeRequest(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	list := limitList(coupling.RankByDependents(p), request.GetFloat("limit", 0))
	return jsonResult(output.DependentCounts(list))
}

func (s *Server) dependencyGraphHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, errResult := s.analyzeRequest(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	if request.GetBool("clustered", false) {
		return mcp.NewToolResultText(output.RenderClusteredDOT(p)), nil
	}
	return mcp.NewToolResultText(output.RenderDOT(p)), nil
}

func limitList(list model.RankedList, limit float64) model.RankedList {
	if n := int(limit); n > 0 && n < len(list) {
		return list[:n]
	}
	return list
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
