package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"req-oracle/internal/config"
	"req-oracle/internal/oracle"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// WorkloadLoader re-reads the workload snapshot on demand.
type WorkloadLoader func() (oracle.Workload, error)

// Server holds the state for the MCP server.
type Server struct {
	cfg    *config.AppConfig
	oracle *oracle.Service
	load   WorkloadLoader
	server *sdk.Server
}

// NewServer creates a new MCP server and registers its tools. load may be nil, in which case
// the reload tool reports an error.
func NewServer(cfg *config.AppConfig, svc *oracle.Service, load WorkloadLoader, version string) *Server {
	if cfg == nil {
		cfg = &config.AppConfig{}
	}
	s := &Server{
		cfg:    cfg,
		oracle: svc,
		load:   load,
		server: sdk.NewServer(&sdk.Implementation{Name: "req-oracle", Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Start serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// addTool registers a handler whose result is returned as indented JSON text.
func addTool[In any](s *Server, name, description string, h func(context.Context, In) (interface{}, error)) {
	sdk.AddTool(s.server, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			log.Debug().Str("tool", name).Msg("Tool called")
			data, err := h(ctx, in)
			if err != nil {
				log.Warn().Err(err).Str("tool", name).Msg("Tool failed")
				return nil, nil, err
			}
			text, err := formatResult(data)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to encode %s result: %w", name, err)
			}
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: text}},
			}, nil, nil
		})
}

func formatResult(data interface{}) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
