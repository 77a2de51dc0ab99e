// Package generator coordinates one document generation: template resolution,
// record validation, field mapping, rendering and output placement.
package generator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
	"quotegen/internal/common/metrics"
	"quotegen/internal/common/observability"
	"quotegen/internal/common/validation"
	"quotegen/internal/fieldmap"
	"quotegen/internal/outputstore"
	"quotegen/internal/render"
	"quotegen/internal/templatestore"
)

// Request is one generation request.
type Request struct {
	Kind         string                 `json:"kind"`
	Record       map[string]interface{} `json:"record"`
	FilenameHint string                 `json:"filenameHint,omitempty"`
}

// Result describes a successfully generated document.
type Result struct {
	RequestID    string    `json:"requestId"`
	OutputPath   string    `json:"outputPath"`
	TemplateKind string    `json:"templateKind"`
	TemplatePath string    `json:"templatePath"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Generator wires the generation pipeline together. Generation is not
// idempotent: the same request twice produces two documents at two paths.
type Generator struct {
	templates *templatestore.Store
	mappings  *fieldmap.Registry
	schemas   *validation.SchemaSet
	renderer  *render.Renderer
	output    *outputstore.Store
	obs       *observability.Observability
	log       logger.Logger
}

type Config struct {
	Templates *templatestore.Store
	Mappings  *fieldmap.Registry
	Schemas   *validation.SchemaSet
	Renderer  *render.Renderer
	Output    *outputstore.Store
	Obs       *observability.Observability
	Logger    logger.Logger
}

func New(cfg Config) *Generator {
	return &Generator{
		templates: cfg.Templates,
		mappings:  cfg.Mappings,
		schemas:   cfg.Schemas,
		renderer:  cfg.Renderer,
		output:    cfg.Output,
		obs:       cfg.Obs,
		log:       cfg.Logger,
	}
}

// Generate runs the full pipeline for one request. Errors from the pipeline
// stages propagate unchanged, carrying their generation error codes; on any
// failure no output file exists.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	requestID := uuid.NewString()

	log := g.log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"kind":       req.Kind,
	})
	log.Info("Generation started", nil)

	metrics.GenerationsActive.WithLabelValues(req.Kind).Inc()
	defer metrics.GenerationsActive.WithLabelValues(req.Kind).Dec()

	result, err := g.generate(ctx, requestID, req)
	duration := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(req.Kind).Observe(duration.Seconds())

	if err != nil {
		code := errors.CodeOf(err)
		codeLabel := string(code)
		if codeLabel == "" {
			// Non-generation failures (context cancellation and the like)
			// still need a usable error_code label.
			codeLabel = "INTERNAL"
		}
		metrics.GenerationsFailed.WithLabelValues(req.Kind, codeLabel).Inc()
		if g.obs != nil {
			g.obs.RecordGeneration(ctx, "failed")
			g.obs.RecordDuration(ctx, duration, "failed")
		}
		log.WithError(err).Error("Generation failed", map[string]interface{}{
			"error_code": codeLabel,
		})
		return nil, err
	}

	metrics.GenerationsCompleted.WithLabelValues(req.Kind).Inc()
	if g.obs != nil {
		g.obs.RecordGeneration(ctx, "completed")
		g.obs.RecordDuration(ctx, duration, "completed")
	}
	log.Info("Generation completed", map[string]interface{}{
		"output_path": result.OutputPath,
		"duration_ms": duration.Milliseconds(),
	})
	return result, nil
}

func (g *Generator) generate(ctx context.Context, requestID string, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapping, ok := g.mappings.Get(req.Kind)
	if !ok {
		return nil, errors.NewTemplateNotFoundError(req.Kind)
	}

	tmpl, err := g.templates.Get(req.Kind)
	if err != nil {
		return nil, err
	}

	// Mapped-field presence is checked before the schema so a missing mapped
	// field always reports MISSING_FIELD naming it, even when a configured
	// schema also marks that field required.
	assignments, err := mapping.BuildAssignments(req.Record)
	if err != nil {
		return nil, err
	}

	if g.schemas != nil {
		result, err := g.schemas.ValidateRecord(req.Kind, req.Record)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, errors.NewRecordInvalidError(result.Messages())
		}
	}

	base := g.baseName(req)
	writes := make([]render.Assignment, len(assignments))
	for i, a := range assignments {
		writes[i] = render.Assignment{Cell: a.Cell, Value: a.Value}
	}

	outputPath, err := g.output.Claim(base, ".xlsx", func(path string) error {
		return g.renderer.Render(tmpl.Path, mapping.Sheet, writes, path)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		RequestID:    requestID,
		OutputPath:   outputPath,
		TemplateKind: req.Kind,
		TemplatePath: tmpl.Path,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func (g *Generator) baseName(req Request) string {
	if base, ok := outputstore.SanitizeBase(req.FilenameHint); ok {
		return base
	}
	return outputstore.DefaultBase(req.Kind)
}
