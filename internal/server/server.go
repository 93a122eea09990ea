// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/teamfit/internal/config"
	"github.com/HendryAvila/teamfit/internal/engine"
	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/logging"
	"github.com/HendryAvila/teamfit/internal/prompts"
	"github.com/HendryAvila/teamfit/internal/resources"
	"github.com/HendryAvila/teamfit/internal/scheduler"
	"github.com/HendryAvila/teamfit/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the cache store and the log file
// and must be called on shutdown (typically via defer). It is always
// non-nil.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	e, cleanup, err := NewEngine(cfg)
	if err != nil {
		return nil, noop, err
	}
	mode := cfg.Mode()

	s := server.NewMCPServer(
		"teamfit",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	resolveTool := tools.NewResolveRoleTool(e)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	matchTool := tools.NewMatchTool(e, mode)
	s.AddTool(matchTool.Definition(), matchTool.Handle)

	scheduleTool := tools.NewScheduleTool(e, mode)
	s.AddTool(scheduleTool.Definition(), scheduleTool.Handle)

	splitTool := tools.NewSplitTool(e, mode)
	s.AddTool(splitTool.Definition(), splitTool.Handle)

	planTool := tools.NewPlanTool(e, mode)
	s.AddTool(planTool.Definition(), planTool.Handle)

	// --- Register cache-backed tools ---

	recommendTool := tools.NewRecommendTool(e, mode)
	s.AddTool(recommendTool.Definition(), recommendTool.Handle)

	candidatesTool := tools.NewCandidatesTool(e, mode)
	s.AddTool(candidatesTool.Definition(), candidatesTool.Handle)

	invalidateTool := tools.NewCacheInvalidateTool(e)
	s.AddTool(invalidateTool.Definition(), invalidateTool.Handle)

	// --- Register prompts ---

	staffPrompt := prompts.NewStaffPrompt(mode)
	s.AddPrompt(staffPrompt.Definition(), staffPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(e.Roles(), cfg)
	s.AddResource(resourceHandler.RolesResource(), resourceHandler.HandleRoles)
	s.AddResource(resourceHandler.ConfigResource(), resourceHandler.HandleConfig)

	return s, cleanup, nil
}

// NewEngine builds the assignment engine from configuration. A broken role
// table is an error; a cache backend or log file that cannot be opened only
// degrades the engine (in-memory cache, no log) with a warning.
func NewEngine(cfg config.Config) (*engine.Engine, func(), error) {
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, noop, fmt.Errorf("loading role table: %w", err)
	}

	var logger scheduler.Logger
	fileLog, logErr := logging.New(cfg.LogsDir())
	if logErr != nil {
		log.Printf("WARNING: log file disabled: %v", logErr)
	} else {
		logger = fileLog
	}

	store, closeStore, storeErr := cfg.OpenStore()
	if storeErr != nil {
		log.Printf("WARNING: %s cache unavailable, using memory: %v", cfg.Cache, storeErr)
		store, closeStore = kvstore.NewMemory(), noop
	}

	cleanup := func() {
		closeStore()
		if err := fileLog.Close(); err != nil {
			log.Printf("WARNING: log file close: %v", err)
		}
	}
	return engine.New(resolver, store, logger), cleanup, nil
}

// noop is the cleanup used when nothing was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use teamfit effectively.
func serverInstructions() string {
	return `You have access to teamfit, a team assignment engine.

## WHAT IT DOES

Given a team (roles, hourly rate, speed factor, hours free in each of the
next 4 weeks) and the tasks of an order (role, estimated hours), teamfit
picks who should do each task. Role labels are free text: "Senior React
Dev" resolves to frontend, "UX researcher" to ux.

## MODES

- fastest: spread work across as many people as possible, quickest first
- balanced: keep work with people already on the order (default)
- cheapest: lowest hourly rate with room for the task

## WHICH TOOL TO USE

- team_recommend: the normal entry point for an order; cached per order
- team_candidates: show alternatives per task when the user wants a choice
- team_plan: cost, finishing week and shortfall; split=true divides big tasks
- team_match / team_schedule / team_split: single steps, no caching
- team_resolve_role: check how a role label is understood
- team_cache_invalidate: force a recompute for an order

## RULES

1. With a non-empty team every task is assigned, even if that overbooks
   someone. Always tell the user about overbooked tasks and fallback stages.
2. Never invent member data. Ask for rates, speed and availability if
   they are missing (speed defaults to 1.0, availability to 40h per week).
3. The cache notices team and task changes on its own; invalidate only
   when the user asks for a fresh answer.`
}
