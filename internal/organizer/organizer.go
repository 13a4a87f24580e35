package organizer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pdf-agent/internal/common"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Plan is everything decided about a document before the file is touched.
type Plan struct {
	Resolution Resolution
	Fields     NamingFields
	Labels     LabelSet
	Target     OrganizedPath
}

// Result is a committed plan.
type Result struct {
	Plan
	NewPath string
}

// Organizer renames and files classified documents under the output folder.
type Organizer struct {
	rules      *RuleSet
	normalizer *Normalizer
	committer  *Committer
	outputRoot string
	logger     *slog.Logger
}

func New(rules *RuleSet, normalizer *Normalizer, committer *Committer, outputRoot string, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = slog.Default()
	}
	if committer == nil {
		committer = NewCommitter(logger)
	}
	return &Organizer{
		rules:      rules,
		normalizer: normalizer,
		committer:  committer,
		outputRoot: outputRoot,
		logger:     logger,
	}
}

// FromConfig wires an Organizer from the loaded configuration.
func FromConfig(cfg *common.Config, logger *slog.Logger, opts ...NormalizerOption) (*Organizer, error) {
	rules, err := NewRuleSet(cfg.DefaultNaming, cfg.DocumentTypes)
	if err != nil {
		return nil, err
	}
	norm := NewNormalizer(cfg.DateFormat, cfg.LabelThreshold, logger, opts...)
	return New(rules, norm, NewCommitter(logger), cfg.OutputFolder, logger), nil
}

// Rules exposes the rule table, for prompts that list document types.
func (o *Organizer) Rules() *RuleSet { return o.rules }

// Plan normalizes the classification, resolves templates and renders the
// destination. An unconfigured type yields an UNCLASSIFIED error.
func (o *Organizer) Plan(c *entity.Classification) (Plan, error) {
	if c == nil {
		return Plan{}, common.UnclassifiedError("no classification", nil)
	}
	docType := strings.TrimSpace(c.DocumentType)
	labels := o.normalizer.Labels(c)
	res, err := o.rules.Resolve(docType, labels)
	if err != nil {
		return Plan{}, err
	}
	fields := o.normalizer.Normalize(c)
	target, err := BuildPath(res, fields, o.outputRoot)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Resolution: res, Fields: fields, Labels: labels, Target: target}, nil
}

// Organize plans and commits one file. The commit does not observe ctx, so a
// cancellation never leaves a half-finished move.
func (o *Organizer) Organize(ctx context.Context, src string, c *entity.Classification) (Result, error) {
	logger := common.LoggerFromContext(ctx, o.logger)
	plan, err := o.Plan(c)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("organizer.plan",
		"src", src,
		"document_type", plan.Resolution.DocumentType,
		"labels", plan.Labels.Sorted(),
		"override", plan.Resolution.MatchedOverride,
		"folder", plan.Target.Dir,
		"filename", plan.Target.Filename,
		"date_fallback", plan.Fields.DateFallback,
	)

	final, err := o.committer.Commit(src, plan.Target)
	if err != nil {
		return Result{Plan: plan}, err
	}
	logger.Info("organizer.commit.ok", "src", src, "dst", final)
	return Result{Plan: plan, NewPath: final}, nil
}
