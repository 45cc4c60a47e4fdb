// Package sommelier turns sake questions into prompts for a generative model
// and turns the model's free-text answers back into typed results.
//
// The two operations fail differently on purpose. AnalyzeSakeBrand always
// returns something usable, falling back to a neutral flavor profile.
// AnalyzeMenuAndRecommend returns an *AnalysisError instead, because a
// recommendation not grounded in the actual menu is worthless.
package sommelier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/menu"
	"github.com/jeanpaul/sakemate/internal/metrics"
	"github.com/jeanpaul/sakemate/internal/provider"
	"github.com/jeanpaul/sakemate/internal/schema"
	"github.com/jeanpaul/sakemate/internal/types"
)

const (
	opBrand = "analyze_brand"
	opMenu  = "analyze_menu"

	DefaultLanguage = "Japanese"
)

// AnalysisError is returned when a menu could not be analyzed.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return "menu analysis failed: " + e.Err.Error() }

func (e *AnalysisError) Unwrap() error { return e.Err }

type Sommelier struct {
	prov      provider.Provider
	validator *schema.Validator
	language  string
}

type Option func(*Sommelier)

// WithLanguage sets the language of names and prose in model replies.
func WithLanguage(lang string) Option {
	return func(s *Sommelier) {
		if lang != "" {
			s.language = lang
		}
	}
}

func New(p provider.Provider, opts ...Option) *Sommelier {
	s := &Sommelier{prov: p, validator: schema.NewValidator(), language: DefaultLanguage}
	for _, o := range opts {
		o(s)
	}
	return s
}

// fallbackAnalysis is what AnalyzeSakeBrand returns when the model is no help.
func fallbackAnalysis(name string) types.BrandAnalysis {
	return types.BrandAnalysis{IdentifiedName: name, FlavorProfile: types.NeutralFlavorProfile()}
}

// AnalyzeSakeBrand asks the model what it knows about brandName. It never
// fails: transport errors and unusable replies yield the input name with a
// neutral profile.
func (s *Sommelier) AnalyzeSakeBrand(ctx context.Context, brandName string) types.BrandAnalysis {
	log := logging.Ctx(ctx).With().Str("op", opBrand).Str("brand", brandName).Logger()
	start := time.Now()
	defer func() { metrics.AIRequestDuration.WithLabelValues(opBrand).Observe(time.Since(start).Seconds()) }()

	reply, err := s.prov.Generate(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: brandPrompt(brandName, s.language)},
	})
	if err != nil {
		log.Warn().Err(err).Msg("brand analysis call failed, using neutral profile")
		metrics.AIRequests.WithLabelValues(opBrand, metrics.OutcomeFallback).Inc()
		return fallbackAnalysis(brandName)
	}

	var out types.BrandAnalysis
	if err := s.decode(reply, brandAnalysisSchema, &out); err != nil {
		log.Warn().Err(err).Str("reply", truncate(reply, 300)).Msg("brand analysis reply unusable, using neutral profile")
		metrics.AIRequests.WithLabelValues(opBrand, metrics.OutcomeFallback).Inc()
		return fallbackAnalysis(brandName)
	}
	if strings.TrimSpace(out.IdentifiedName) == "" {
		out.IdentifiedName = brandName
	}
	metrics.AIRequests.WithLabelValues(opBrand, metrics.OutcomeOK).Inc()
	log.Debug().Str("identified", out.IdentifiedName).Msg("brand analyzed")
	return out
}

// AnalyzeMenuAndRecommend sends the menu document and the user's favourite
// brands to the model and returns its picks. Every failure is reported as
// an *AnalysisError.
func (s *Sommelier) AnalyzeMenuAndRecommend(ctx context.Context, doc menu.Image, userBrands []types.SakeBrand) (types.MenuAnalysisResult, error) {
	log := logging.Ctx(ctx).With().Str("op", opMenu).Str("media_type", doc.MIMEType).Int("brands", len(userBrands)).Logger()
	start := time.Now()
	defer func() { metrics.AIRequestDuration.WithLabelValues(opMenu).Observe(time.Since(start).Seconds()) }()

	fail := func(err error) (types.MenuAnalysisResult, error) {
		metrics.AIRequests.WithLabelValues(opMenu, metrics.OutcomeError).Inc()
		log.Error().Err(err).Msg("menu analysis failed")
		return types.MenuAnalysisResult{}, &AnalysisError{Err: err}
	}

	reply, err := s.prov.Generate(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{
			Role:        provider.RoleUser,
			Content:     menuPrompt(userBrands, doc.Text, s.language),
			Attachments: []provider.Attachment{{MIMEType: doc.MIMEType, Data: doc.Data}},
		},
	})
	if err != nil {
		return fail(err)
	}

	var out types.MenuAnalysisResult
	if err := s.decode(reply, menuAnalysisSchema, &out); err != nil {
		log.Debug().Str("reply", truncate(reply, 300)).Msg("unusable menu reply")
		return fail(err)
	}
	normalize(&out)
	metrics.AIRequests.WithLabelValues(opMenu, metrics.OutcomeOK).Inc()
	log.Info().Int("detected", len(out.DetectedSakes)).Int("recommended", len(out.Recommendations)).Msg("menu analyzed")
	return out, nil
}

// decode extracts the JSON object from reply, checks it against schemaDoc
// and unmarshals it into out.
func (s *Sommelier) decode(reply, schemaDoc string, out any) error {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return err
	}
	if err := s.validator.Validate(schemaDoc, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

func normalize(r *types.MenuAnalysisResult) {
	if r.DetectedSakes == nil {
		r.DetectedSakes = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []types.RecommendedSake{}
	}
	for i := range r.Recommendations {
		if r.Recommendations[i].Characteristics == nil {
			r.Recommendations[i].Characteristics = []string{}
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
