// Package server exposes the generation core as a small local HTTP console.
package server

import (
	stderrors "errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quotegen/internal/common/config"
	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
	"quotegen/internal/generator"
	"quotegen/internal/pricebook"
	"quotegen/internal/requestparse"
	"quotegen/internal/templatestore"
)

type Server struct {
	gen       *generator.Generator
	templates *templatestore.Store
	parser    *requestparse.Parser
	parserCfg config.ParserConfig
	outputDir string
	log       logger.Logger
	engine    *gin.Engine
}

type Config struct {
	Generator *generator.Generator
	Templates *templatestore.Store
	Parser    *requestparse.Parser
	ParserCfg config.ParserConfig
	OutputDir string
	Logger    logger.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		gen:       cfg.Generator,
		templates: cfg.Templates,
		parser:    cfg.Parser,
		parserCfg: cfg.ParserCfg,
		outputDir: cfg.OutputDir,
		log:       cfg.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)
	engine.GET("/templates", s.handleTemplates)
	engine.POST("/generate", s.handleGenerate)
	engine.POST("/requests/parse", s.handleParseRequest)
	engine.POST("/requests/match", s.handleMatchRequest)
	engine.GET("/files/:name", s.handleDownload)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for both the real listener and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleTemplates(c *gin.Context) {
	kinds, err := s.templates.Kinds()
	if err != nil {
		s.writeError(c, err)
		return
	}

	type templateInfo struct {
		Kind    string `json:"kind"`
		Path    string `json:"path,omitempty"`
		Missing bool   `json:"missing,omitempty"`
	}
	out := make([]templateInfo, 0, len(kinds))
	for _, kind := range kinds {
		tmpl, err := s.templates.Get(kind)
		if err != nil {
			out = append(out, templateInfo{Kind: kind, Missing: true})
			continue
		}
		out = append(out, templateInfo{Kind: kind, Path: tmpl.Path})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": err.Error()})
		return
	}
	if req.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "kind is required"})
		return
	}

	result, err := s.gen.Generate(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleParseRequest(c *gin.Context) {
	items, ok := s.parseUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// handleMatchRequest parses an uploaded request workbook and fills prices from
// the quotations accumulated in the output folder.
func (s *Server) handleMatchRequest(c *gin.Context) {
	items, ok := s.parseUpload(c)
	if !ok {
		return
	}

	book, err := pricebook.Build(s.outputDir, s.parserCfg, s.log)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"priceSources": book.Size(),
		"results":      book.Match(items),
	})
}

func (s *Server) parseUpload(c *gin.Context) ([]requestparse.Item, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "multipart field 'file' is required"})
		return nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		s.writeError(c, errors.NewRequestParseFailedError(fileHeader.Filename, err))
		return nil, false
	}
	defer file.Close()

	items, err := s.parser.ParseReader(file, fileHeader.Filename)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	return items, true
}

// handleDownload serves a generated document. The name must be a plain file
// name inside the output folder; anything that looks like a path is refused.
func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "invalid file name"})
		return
	}
	path := filepath.Join(s.outputDir, name)
	c.FileAttachment(path, name)
}

func (s *Server) writeError(c *gin.Context, err error) {
	var genErr *errors.GenerationError
	if stderrors.As(err, &genErr) {
		c.JSON(errors.HTTPStatus(genErr.Code), gin.H{
			"code":    genErr.Code,
			"message": genErr.Message,
			"details": genErr.Details,
		})
		return
	}
	s.log.WithError(err).Error("Unhandled error", nil)
	c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": err.Error()})
}
