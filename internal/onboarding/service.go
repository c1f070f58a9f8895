// Package onboarding turns a business description into a persisted,
// normalized dashboard configuration.
package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/onboarder/internal/cache"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/generator"
	"github.com/mohammad-safakhou/onboarder/internal/normalize"
	"github.com/mohammad-safakhou/onboarder/internal/store"
	"github.com/mohammad-safakhou/onboarder/internal/templates"
	"go.uber.org/zap"
)

// Generation paths.
const (
	PathTemplate = "template"
	PathScratch  = "scratch"
)

// ErrEmptyDescription is returned when a request has no description.
var ErrEmptyDescription = errors.New("onboarding: description is required")

// ErrUnknownTemplate is returned when a named template does not exist.
var ErrUnknownTemplate = errors.New("onboarding: unknown template")

// GenerationError wraps failures of the text-generation step. Callers may
// retry the request.
type GenerationError struct {
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s configuration: %v", e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigStore persists configurations.
type ConfigStore interface {
	CreateConfig(ctx context.Context, cfg *dashboard.Configuration, history json.RawMessage) (string, error)
	GetConfig(ctx context.Context, id string) (store.ConfigRecord, error)
	UpdateConfig(ctx context.Context, id string, upd store.ConfigUpdate) (store.ConfigRecord, error)
}

// Request is one onboarding submission.
type Request struct {
	Description         string
	ConversationHistory json.RawMessage
}

// Result is a completed onboarding.
type Result struct {
	Config       *dashboard.Configuration
	ConfigID     string
	RedirectURL  string
	Path         string
	BusinessType string
	Family       string
	Report       *normalize.Report
}

// Options wires a Service.
type Options struct {
	Templates    *templates.Registry
	Normalizer   *normalize.Normalizer
	Generator    generator.Generator
	Store        ConfigStore
	Cache        *cache.Cache
	DashboardURL string
	Logger       *zap.Logger
}

type Service struct {
	templates    *templates.Registry
	normalizer   *normalize.Normalizer
	gen          generator.Generator
	store        ConfigStore
	cache        *cache.Cache
	dashboardURL string
	logger       *zap.Logger
}

// NewService builds a Service. Templates and Normalizer default to the
// built-in ones; Generator and Store are required for Configure.
func NewService(opts Options) *Service {
	if opts.Templates == nil {
		opts.Templates = templates.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.New(nil, opts.Logger)
	}
	return &Service{
		templates:    opts.Templates,
		normalizer:   opts.Normalizer,
		gen:          opts.Generator,
		store:        opts.Store,
		cache:        opts.Cache,
		dashboardURL: strings.TrimRight(opts.DashboardURL, "/"),
		logger:       opts.Logger.Named("onboarding"),
	}
}

// Configure generates, normalizes and stores a configuration for the
// described business. A matching industry template is customized when one
// exists; otherwise the configuration is built from scratch.
func (s *Service) Configure(ctx context.Context, req Request) (*Result, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if s.gen == nil || s.store == nil {
		return nil, errors.New("onboarding: service has no generator or store")
	}

	res := &Result{Path: PathScratch}
	var tmpl *templates.Template
	if bt, family, ok := s.templates.Resolve(description); ok {
		res.BusinessType, res.Family = bt, family
		if t, found := s.templates.Load(bt, family); found {
			tmpl = t
			res.Path = PathTemplate
		} else {
			s.logger.Info("template family matched without a template, building from scratch",
				zap.String("business_type", bt), zap.String("family", family))
		}
	}

	cfg, err := s.generate(ctx, description, tmpl)
	if err != nil {
		return nil, &GenerationError{Path: res.Path, Err: err}
	}

	var seed *normalize.Template
	if tmpl != nil {
		seed = &normalize.Template{Config: tmpl.Config, LockedIDs: tmpl.LockedIDs}
	}
	out, report := s.normalizer.Normalize(cfg, res.BusinessType, seed)
	if err := dashboard.Validate(out); err != nil {
		return nil, fmt.Errorf("normalized configuration is invalid: %w", err)
	}

	id, err := s.store.CreateConfig(ctx, out, req.ConversationHistory)
	if err != nil {
		return nil, fmt.Errorf("persist configuration: %w", err)
	}

	res.Config = out
	res.ConfigID = id
	res.Report = report
	res.BusinessType = out.BusinessType
	res.RedirectURL = s.RedirectURL(id, out)
	s.logger.Info("configuration created",
		zap.String("config_id", id),
		zap.String("path", res.Path),
		zap.String("business_type", out.BusinessType),
		zap.Int("tabs", len(out.Tabs)),
		zap.Int("corrections", len(report.Corrections)),
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, description string, tmpl *templates.Template) (*dashboard.Configuration, error) {
	var (
		prompt string
		err    error
	)
	if tmpl != nil {
		var seed string
		if seed, err = tmpl.PromptJSON(); err != nil {
			return nil, err
		}
		prompt, err = generator.CustomizePrompt(description, tmpl.BusinessType, seed)
	} else {
		prompt, err = generator.ScratchPrompt(description, s.normalizer.Tables())
	}
	if err != nil {
		return nil, err
	}

	reply, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	doc, err := generator.ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	return dashboard.Decode(doc)
}

// RedirectURL points the dashboard preview at a stored configuration. The
// business name and type ride along for previews that cannot load it.
func (s *Service) RedirectURL(id string, cfg *dashboard.Configuration) string {
	var name, btype string
	if cfg != nil {
		name, btype = cfg.BusinessName, cfg.BusinessType
	}
	return fmt.Sprintf("%s/preview?config_id=%s&business_name=%s&business_type=%s",
		s.dashboardURL, queryEscape(id), queryEscape(name), queryEscape(btype))
}

func queryEscape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Normalize runs the pipeline on a supplied configuration. When family is
// set, the named template's locked components are reconciled as well.
func (s *Service) Normalize(cfg *dashboard.Configuration, businessType, family string) (*dashboard.Configuration, *normalize.Report, error) {
	var seed *normalize.Template
	if family != "" {
		tmpl, ok := s.templates.Load(businessType, family)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s/%s", ErrUnknownTemplate, family, businessType)
		}
		seed = &normalize.Template{Config: tmpl.Config, LockedIDs: tmpl.LockedIDs}
	}
	out, report := s.normalizer.Normalize(cfg, businessType, seed)
	return out, report, nil
}

// Detect resolves a description to a template without generating anything.
func (s *Service) Detect(description string) (businessType, family string, ok bool) {
	return s.templates.Resolve(description)
}

// Get returns a stored configuration, preferring the cache.
func (s *Service) Get(ctx context.Context, id string) (store.ConfigRecord, error) {
	if s.store == nil {
		return store.ConfigRecord{}, store.ErrNotFound
	}
	return s.cache.Get(ctx, id, s.store.GetConfig)
}

// Update applies a partial edit and refreshes the cache.
func (s *Service) Update(ctx context.Context, id string, upd store.ConfigUpdate) (store.ConfigRecord, error) {
	if s.store == nil {
		return store.ConfigRecord{}, store.ErrNotFound
	}
	rec, err := s.store.UpdateConfig(ctx, id, upd)
	if err != nil {
		return store.ConfigRecord{}, err
	}
	if err := s.cache.Put(ctx, rec); err != nil {
		s.logger.Warn("cache refresh failed", zap.String("config_id", id), zap.Error(err))
		_ = s.cache.Invalidate(ctx, id)
	}
	return rec, nil
}
