package css

import (
	"go.uber.org/zap"
)

// DefaultRootClass marks top level content wrapper of compiled documents.
const DefaultRootClass = "mkly-document"

// Inliner converts HTML with embedded stylesheets into HTML with inline
// styles only. It holds no per-document state and may be used concurrently.
type Inliner struct {
	log       *zap.Logger
	rootClass string
	audit     bool
}

// Option configures Inliner.
type Option func(*Inliner)

// WithRootClass sets class of the document root element. Custom properties
// are collected from it (and from ":root") and its own declarations are
// reported as document styles.
func WithRootClass(class string) Option {
	return func(in *Inliner) {
		if class != "" {
			in.rootClass = class
		}
	}
}

// WithAudit enables stylesheet diagnostics in Result.Warnings.
func WithAudit(enable bool) Option {
	return func(in *Inliner) {
		in.audit = enable
	}
}

// NewInliner creates a new CSS inliner.
func NewInliner(log *zap.Logger, opts ...Option) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Inliner{
		log:       log.Named("css-inliner"),
		rootClass: DefaultRootClass,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// RootClass returns configured document root class.
func (in *Inliner) RootClass() string {
	return in.rootClass
}

// Inline runs complete pipeline over html. It never fails: whatever could not
// be understood is left as is.
func (in *Inliner) Inline(html string) *Result {
	sheet, body := ExtractStyles(html)
	body = StripNonContentTags(body)
	flat := UnwrapLayers(sheet)

	res := &Result{}
	if in.audit {
		res.Warnings = Audit(flat)
		for _, w := range res.Warnings {
			in.log.Debug("Stylesheet audit", zap.String("warning", w))
		}
	}

	rules := ParseRules(flat)
	vars := CollectCustomProperties(rules, in.rootClass)
	ResolveDeclarations(rules, vars)

	res.Rules, res.Vars = rules, vars
	res.DocumentStyles = documentStyles(rules, in.rootClass)
	res.ContentHTML = ExtractMainContent(InlineStyles(body, rules, in.rootClass))

	in.log.Debug("Inlined styles",
		zap.Int("css bytes", len(sheet)),
		zap.Int("rules", len(rules)),
		zap.Int("variables", len(vars)),
		zap.Int("document styles", res.DocumentStyles.Len()),
		zap.Int("html bytes", len(html)),
		zap.Int("content bytes", len(res.ContentHTML)),
	)
	return res
}

// documentStyles gathers standard declarations of the document root class in
// source order.
func documentStyles(rules []Rule, rootClass string) *Declarations {
	styles := NewDeclarations()
	for _, rule := range rules {
		if rule.Selector != "."+rootClass {
			continue
		}
		for prop, value := range rule.Declarations.All() {
			if !IsCustomProperty(prop) {
				styles.Set(prop, value)
			}
		}
	}
	return styles
}

// Inline is a shortcut running default inliner without logging.
func Inline(html string) *Result {
	return NewInliner(nil).Inline(html)
}
