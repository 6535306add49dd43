package api

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-statement-analyzer/internal/extractor"
	"github.com/insightdelivered/bank-statement-analyzer/internal/logger"
	"github.com/insightdelivered/bank-statement-analyzer/internal/parser"
	"github.com/insightdelivered/bank-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/bank-statement-analyzer/internal/profile"
	"github.com/insightdelivered/bank-statement-analyzer/internal/writer"
)

// RunIDHeader carries the id assigned to each analysis request.
const RunIDHeader = "X-Run-ID"

// AnalyzeResponse is the JSON response from the /api/analyze endpoint.
type AnalyzeResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	RunID   string           `json:"runId,omitempty"`
	Result  *pipeline.Result `json:"result,omitempty"`
	CSV     string           `json:"csv,omitempty"`
	Version string           `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Engine         *pipeline.Engine
	DefaultBank    string
	MaxUploadBytes int64
	Version        string
	Log            zerolog.Logger
}

// NewApp creates a fiber app with the API routes registered.
func (h *Handler) NewApp() *fiber.App {
	cfg := fiber.Config{DisableStartupMessage: true}
	if h.MaxUploadBytes > 0 {
		cfg.BodyLimit = int(h.MaxUploadBytes)
	}
	app := fiber.New(cfg)
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Content-Type",
		ExposeHeaders: RunIDHeader,
	}))
	h.Register(app)
	return app
}

// Register sets up the routes on app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Get("/api/profiles", h.HandleProfiles)
	app.Post("/api/analyze", h.HandleAnalyze)
}

// HandleHealth handles GET /api/health.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

// HandleProfiles handles GET /api/profiles.
func (h *Handler) HandleProfiles(c *fiber.Ctx) error {
	catalog := h.Engine.Catalog()
	profiles := catalog.Profiles()
	return c.JSON(fiber.Map{
		"profiles":   profiles,
		"categories": catalog.Categories(),
		"count":      len(profiles),
	})
}

// HandleAnalyze handles POST /api/analyze. The form carries the statement in
// "file", an optional profile key in "bank" and optional header assignments
// in "columns" ("date=Dia,concept=Texto").
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	runID := uuid.NewString()
	c.Set(RunIDHeader, runID)
	log := h.Log.With().Str("run_id", runID).Logger()

	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, runID, "No file uploaded. Use form field 'file'.")
	}
	if !extractor.Supported(header.Filename) {
		return writeError(c, fiber.StatusBadRequest, runID, fmt.Sprintf("Unsupported file type. Use one of: %s.",
			strings.Join(extractor.SupportedExtensions(), ", ")))
	}

	columns, err := parser.ParseAssignments([]string{c.FormValue("columns")})
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, runID, err.Error())
	}
	bank := c.FormValue("bank", h.DefaultBank)

	dir, err := os.MkdirTemp("", "statement-")
	if err != nil {
		log.Error().Err(err).Msg("Failed to create temp dir")
		return writeError(c, fiber.StatusInternalServerError, runID, "Failed to save uploaded file.")
	}
	defer os.RemoveAll(dir)

	// keep the extension, the loader dispatches on it
	path := filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(header.Filename)))
	if err := c.SaveFile(header, path); err != nil {
		log.Error().Err(err).Msg("Failed to save upload")
		return writeError(c, fiber.StatusInternalServerError, runID, "Failed to save uploaded file.")
	}

	ctx := logger.WithContext(c.UserContext(), log)
	res, err := h.Engine.ProcessFile(ctx, path, pipeline.Request{Bank: bank, Columns: columns})
	switch {
	case errors.Is(err, extractor.ErrUnreadable):
		log.Warn().Err(err).Str("file", header.Filename).Msg("Unreadable upload")
		return writeError(c, fiber.StatusUnprocessableEntity, runID, err.Error())
	case errors.Is(err, profile.ErrUnknownProfile):
		return writeError(c, fiber.StatusBadRequest, runID, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("Analysis failed")
		return writeError(c, fiber.StatusInternalServerError, runID, err.Error())
	}
	res.Source = header.Filename

	resp := AnalyzeResponse{Success: true, RunID: runID, Result: res, Version: h.Version}
	if res.Status == pipeline.StatusColumnsUnresolved {
		resp.Success = false
		resp.Error = res.Reason
		return c.Status(fiber.StatusConflict).JSON(resp)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: true, IncludeSummary: true}
	doc := writer.Document{Source: res.Source, Bank: res.Profile, Records: res.Records, Summary: &res.Summary}
	if err := csvWriter.Write(&csvBuf, doc); err != nil {
		return writeError(c, fiber.StatusInternalServerError, runID, fmt.Sprintf("CSV generation failed: %v", err))
	}
	resp.CSV = csvBuf.String()
	return c.JSON(resp)
}

func writeError(c *fiber.Ctx, status int, runID, msg string) error {
	return c.Status(status).JSON(AnalyzeResponse{
		Success: false,
		Error:   msg,
		RunID:   runID,
	})
}
