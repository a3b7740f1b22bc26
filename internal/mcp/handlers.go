package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Acid-base/researcher/internal/index"
	"github.com/Acid-base/researcher/internal/report"
	"github.com/Acid-base/researcher/internal/research"
)

// handleRetrieve runs a similarity query against the research index.
func (s *Server) handleRetrieve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 0)
	results, err := s.research.Retrieve(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The index may be empty. Use process_urls to add sources."), nil
	}

	return mcp.NewToolResultText(formatResults(results)), nil
}

// handleProcessURLs ingests URLs into the index.
func (s *Server) handleProcessURLs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urls := stringSlice(request.GetArguments()["urls"])
	if len(urls) == 0 {
		return mcp.NewToolResultError("missing required parameter: urls"), nil
	}

	res, err := s.research.Process(ctx, urls, request.GetString("query", ""), nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Processed %d URL(s): %d indexed, %d chunk(s) added. Index now holds %d chunk(s).\n",
		res.ProcessedURLs, res.IndexedURLs, res.Chunks, res.IndexInfo.DocumentCount)
	for _, sk := range res.Skipped {
		fmt.Fprintf(&sb, "Skipped %s: %s\n", sk.URL, sk.Reason)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleIndexInfo describes the index.
func (s *Server) handleIndexInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := s.research.IndexInfo()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Index path: %s\n", info.IndexPath)
	fmt.Fprintf(&sb, "Exists on disk: %t\n", info.IndexExists)
	fmt.Fprintf(&sb, "Chunks: %d\n", info.DocumentCount)
	fmt.Fprintf(&sb, "Next id: %d\n", info.NextID)
	fmt.Fprintf(&sb, "Embedding model: %s\n", info.ModelName)
	if info.LoadError != "" {
		fmt.Fprintf(&sb, "Load error: %s\n", info.LoadError)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGenerateReport writes and archives a cited report.
func (s *Server) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	res, err := s.research.Generate(ctx, research.GenerateRequest{
		Query:          query,
		Limit:          request.GetInt("limit", 0),
		PromptTemplate: request.GetString("prompt_template", ""),
	})
	switch {
	case errors.Is(err, report.ErrNoContext):
		return mcp.NewToolResultError("No relevant information found. Use process_urls to add sources first."), nil
	case errors.Is(err, report.ErrNoProvider):
		return mcp.NewToolResultError("No language model is configured. Set llm.provider and its API key."), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("report generation failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(res.Report)
	sb.WriteString("\n\n## Sources\n")
	for _, c := range res.Citations {
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	if res.SavedTo != "" {
		fmt.Fprintf(&sb, "\nSaved to %s\n", res.SavedTo)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatResults renders retrieval hits for agent consumption.
func formatResults(results []index.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		if r.Metadata.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", r.Metadata.Title)
		}
		if r.Metadata.URL != "" {
			fmt.Fprintf(&sb, "URL: %s\n", r.Metadata.URL)
		}
		if r.Metadata.TotalChunks > 0 {
			fmt.Fprintf(&sb, "Chunk: %d/%d\n", r.Metadata.ChunkIndex, r.Metadata.TotalChunks)
		}
		fmt.Fprintf(&sb, "Score: %.3f\n", r.Score)

		sb.WriteString("\n")
		sb.WriteString(r.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}

// stringSlice accepts a JSON array of strings or a single string.
func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}
