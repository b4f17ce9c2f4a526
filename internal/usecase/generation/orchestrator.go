package generation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/domain/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/conceptforge/concept-api/generation")

// State is a step of a single generation run.
type State string

const (
	StateStart           State = "Start"
	StateTextRequested   State = "TextRequested"
	StateTextReceived    State = "TextReceived"
	StateImagesRequested State = "ImagesRequested"
	StateCompleted       State = "Completed"
	StateFailed          State = "Failed"
)

// Orchestrator runs prompt -> text -> images. It never persists anything.
type Orchestrator struct {
	text   repository.TextGenerator
	images repository.ImageGenerator
}

func NewOrchestrator(text repository.TextGenerator, images repository.ImageGenerator) *Orchestrator {
	return &Orchestrator{
		text:   text,
		images: images,
	}
}

// run tracks the state of one Generate call.
type run struct {
	state State
}

func (r *run) to(next State) {
	log.Printf("[Orchestrator] %s -> %s", r.state, next)
	r.state = next
}

// fail moves the run to Failed and tags err with the state it failed in.
func (r *run) fail(span trace.Span, err error) error {
	stage := r.state
	r.to(StateFailed)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &concept.StageError{Stage: string(stage), Err: err}
}

// Generate turns prompt into descriptive text and then into up to
// concept.MaxImages image URLs. One or two images is a success.
func (o *Orchestrator) Generate(ctx context.Context, prompt string) (*concept.Generation, error) {
	ctx, span := tracer.Start(ctx, "generation.generate")
	defer span.End()

	r := &run{state: StateStart}

	if strings.TrimSpace(prompt) == "" {
		return nil, r.fail(span, fmt.Errorf("%w: prompt is required", concept.ErrInvalidInput))
	}
	span.SetAttributes(attribute.Int("generation.prompt_length", len(prompt)))

	r.to(StateTextRequested)
	text, err := o.generateText(ctx, prompt)
	if err != nil {
		return nil, r.fail(span, err)
	}
	r.to(StateTextReceived)

	r.to(StateImagesRequested)
	urls, err := o.generateImages(ctx, text)
	if err != nil {
		return nil, r.fail(span, err)
	}
	r.to(StateCompleted)

	span.SetAttributes(attribute.Int("generation.image_count", len(urls)))
	return &concept.Generation{
		Prompt:        prompt,
		GeneratedText: text,
		ImageURLs:     urls,
	}, nil
}

func (o *Orchestrator) generateText(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "generation.text", trace.WithAttributes(
		attribute.String("generation.text_backend", o.text.Name()),
	))
	defer span.End()

	text, err := o.text.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		err := fmt.Errorf("%w: %s returned empty text", concept.ErrUpstreamFormat, o.text.Name())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

func (o *Orchestrator) generateImages(ctx context.Context, text string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "generation.images", trace.WithAttributes(
		attribute.Int("generation.image_target", concept.MaxImages),
	))
	defer span.End()

	urls, err := o.images.GenerateImages(ctx, text, concept.MaxImages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no image URLs returned", concept.ErrImageGenerationFailed)
	}
	if len(urls) > concept.MaxImages {
		urls = urls[:concept.MaxImages]
	}
	return urls, nil
}
