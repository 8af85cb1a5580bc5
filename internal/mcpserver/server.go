// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the day ledger of one user for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/dates"
	"github.com/starford/dayblocks/internal/ledger"
	"github.com/starford/dayblocks/internal/models"
)

const contractURI = "dayblocks://grid"

// Server wraps the MCP server with ledger tools.
type Server struct {
	mcp    *server.MCPServer
	ledger ledger.Ledger
	userID string
	now    func() time.Time
}

// New creates a new MCP server acting as userID.
func New(l ledger.Ledger, userID string) *Server {
	s := &Server{ledger: l, userID: userID, now: time.Now}

	s.mcp = server.NewMCPServer(
		"dayblocks",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_day",
		mcp.WithDescription("Return the slots of a day that carry a color, status or note, "+
			"together with the day's summary. Read the grid contract via get_grid_contract "+
			"to map indexes to clock times."),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD or a phrase such as 'today'")),
	), s.getDay)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Return the calendar color of every tracked day as {date: color}."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Return the summary text and 0..5 rating of a day."),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD or a phrase such as 'yesterday'")),
	), s.getSummary)

	s.mcp.AddTool(mcp.NewTool("put_summary",
		mcp.WithDescription("Overwrite the summary of a day."),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD or a phrase such as 'today'")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Summary text")),
		mcp.WithNumber("rating", mcp.Required(), mcp.Description("Integer rating from 0 to 5")),
	), s.putSummary)

	s.mcp.AddTool(mcp.NewTool("set_block_note",
		mcp.WithDescription("Set the note of one 15-minute slot without changing its color."),
		mcp.WithString("date", mcp.Required(), mcp.Description("YYYY-MM-DD or a phrase such as 'today'")),
		mcp.WithNumber("block_index", mcp.Required(), mcp.Description("Slot index 0..95")),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note text; empty clears it")),
	), s.setBlockNote)

	s.mcp.AddTool(mcp.NewTool("get_grid_contract",
		mcp.WithDescription("Returns how a day is divided into slots and how colors are chosen."),
	), s.getGridContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Day Grid Contract",
			mcp.WithResourceDescription("Layout of the 96-slot day grid."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGridResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type dayView struct {
	Date    string             `json:"date"`
	Slots   []models.TimeBlock `json:"slots"`
	Summary summaryView        `json:"summary"`
}

type summaryView struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

func (s *Server) date(req mcp.CallToolRequest) (string, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return "", err
	}
	return dates.Resolve(raw, s.now())
}

func (s *Server) getDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := s.ledger.GetDay(ctx, s.userID, date)
	if err != nil {
		return toolError(err), nil
	}
	sum, err := s.ledger.GetSummary(ctx, s.userID, date)
	if err != nil {
		return toolError(err), nil
	}

	view := dayView{Date: date, Slots: []models.TimeBlock{}, Summary: summaryView{sum.Content, sum.Rating}}
	for _, b := range day {
		if !b.State().IsEmpty() || b.Note != "" {
			b.UserID, b.ID = "", ""
			view.Slots = append(view.Slots, b)
		}
	}
	return jsonResult(view), nil
}

func (s *Server) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.ledger.Stats(ctx, s.userID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(stats), nil
}

func (s *Server) getSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.ledger.GetSummary(ctx, s.userID, date)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summaryView{sum.Content, sum.Rating}), nil
}

func (s *Server) putSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rating, err := req.RequireInt("rating")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.ledger.PutSummary(ctx, s.userID, date, content, rating)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summaryView{sum.Content, sum.Rating}), nil
}

func (s *Server) setBlockNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := s.date(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := req.RequireInt("block_index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.ledger.UpsertNote(ctx, s.userID, date, index, note)
	if err != nil {
		return toolError(err), nil
	}
	b.UserID = ""
	return jsonResult(b), nil
}

func (s *Server) getGridContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GridContract), nil
}

func (s *Server) readGridResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     GridContract,
		},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Message(err))
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
