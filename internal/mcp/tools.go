package mcp

import "github.com/mark3labs/mcp-go/mcp"

// retrieveTool defines the retrieve MCP tool.
var retrieveTool = mcp.NewTool("retrieve",
	mcp.WithDescription("Retrieve the indexed source passages most relevant to a research question, with their URLs and titles."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language research question"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default from config)"),
	),
)

// processURLsTool defines the process_urls MCP tool.
var processURLsTool = mcp.NewTool("process_urls",
	mcp.WithDescription("Fetch web pages or PDFs, extract and clean their text, and add it to the research index."),
	mcp.WithArray("urls",
		mcp.Required(),
		mcp.Description("HTTP(S) URLs to ingest"),
		mcp.WithStringItems(),
	),
	mcp.WithString("query",
		mcp.Description("Research question the sources were gathered for"),
	),
)

// indexInfoTool defines the index_info MCP tool.
var indexInfoTool = mcp.NewTool("index_info",
	mcp.WithDescription("Report how many passages are indexed, the embedding model and where the index is stored."),
)

// generateReportTool defines the generate_report MCP tool.
var generateReportTool = mcp.NewTool("generate_report",
	mcp.WithDescription("Write a cited research report from the indexed passages relevant to a question. Requires a configured language model."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Research question the report answers"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Number of passages to use as context (default from config)"),
	),
	mcp.WithString("prompt_template",
		mcp.Description("Custom prompt containing a {context} placeholder"),
	),
)
