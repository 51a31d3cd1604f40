package mcp

import "github.com/mark3labs/mcp-go/mcp"

var annotateToolDef = mcp.NewTool("cast_annotate",
	mcp.WithDescription("Color command tokens in one or more JSON session recordings. "+
		"Writes <prefix><name> next to each input (or into output_dir) with the annotated events under output_field, "+
		"and records the run in history. Every input is processed before anything is written."),
	mcp.WithArray("paths",
		mcp.Required(),
		mcp.Description("Recording files to annotate (.json)"),
		mcp.WithStringItems(),
	),
	mcp.WithString("lexicon", mcp.Description("Lexicon YAML file (default: configured lexicon or the built-in one)")),
	mcp.WithString("prefix", mcp.Description("Output file name prefix (default: fancy-)")),
	mcp.WithString("output_dir", mcp.Description("Directory for annotated files (default: next to the input)")),
	mcp.WithString("source_field", mcp.Description("Event field to read (default: stdout)")),
	mcp.WithString("output_field", mcp.Description("Event field to write (default: commands)")),
	mcp.WithBoolean("rewrite_source", mcp.Description("Also replace the source field with the annotated events")),
	mcp.WithBoolean("dry_run", mcp.Description("Annotate in memory and report counts without writing files or history")),
)

var tokensToolDef = mcp.NewTool("cast_tokens",
	mcp.WithDescription("List the words recovered from a recording's keystroke events, with their event span and lexicon style. Nothing is written."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Recording file (.json)")),
	mcp.WithString("lexicon", mcp.Description("Lexicon YAML file")),
	mcp.WithString("source_field", mcp.Description("Event field to read (default: stdout)")),
	mcp.WithBoolean("matched_only", mcp.Description("Only list tokens present in the lexicon")),
)

var lexiconToolDef = mcp.NewTool("cast_lexicon",
	mcp.WithDescription("Validate a lexicon and list its tokens with the escape sequences they render to"),
	mcp.WithString("lexicon", mcp.Description("Lexicon YAML file (default: configured lexicon or the built-in one)")),
)

var listToolDef = mcp.NewTool("run_list",
	mcp.WithDescription("List recorded annotation runs, newest first"),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var fetchToolDef = mcp.NewTool("run_fetch",
	mcp.WithDescription("Fetch one annotation run by ID"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
	mcp.WithBoolean("include_matches", mcp.Description("Include matched tokens (default true)")),
)

var reportToolDef = mcp.NewTool("run_report",
	mcp.WithDescription("Render a Markdown report of one annotation run"),
	mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
	mcp.WithBoolean("html", mcp.Description("Render the report to HTML instead")),
)

var purgeToolDef = mcp.NewTool("run_purge",
	mcp.WithDescription("Permanently delete run history. Annotated files are not touched."),
	mcp.WithNumber("older_than_days", mcp.Description("Only delete runs recorded more than N days ago")),
)
