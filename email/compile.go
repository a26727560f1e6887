package email

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailc/css"
)

// Options controls email compilation.
type Options struct {
	RootClass      string
	TrackingPrefix string
	// MaxWidth replaces DefaultMaxWidth for documents which do not set
	// their own width.
	MaxWidth  int
	Preheader bool
	Audit     bool
	Defaults  Defaults
}

// Document is compiled email.
type Document struct {
	HTML     string
	Meta     *Meta
	Warnings []string
	// RefID is document "mkly:id" when it is a valid UUID, new UUIDv7
	// otherwise.
	RefID uuid.UUID
	// Styles is a dump of resolved stylesheet for debug reports.
	Styles string
}

// Compiler converts web HTML into email HTML. It may be shared between
// goroutines.
type Compiler struct {
	log       *zap.Logger
	opts      Options
	inliner   *css.Inliner
	preheader *Preheader
}

// NewCompiler creates compiler, zero Defaults are replaced with
// DefaultDefaults.
func NewCompiler(log *zap.Logger, opts Options) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Defaults == (Defaults{}) {
		opts.Defaults = DefaultDefaults()
	}

	c := &Compiler{
		log:  log.Named("email"),
		opts: opts,
		inliner: css.NewInliner(log,
			css.WithRootClass(opts.RootClass),
			css.WithAudit(opts.Audit),
		),
	}
	if opts.Preheader {
		c.preheader = NewPreheader(log)
	}
	return c
}

// Compile extracts metadata, inlines styles, tracks links and wraps content
// into email document.
func (c *Compiler) Compile(webHTML string) (*Document, error) {
	meta := ExtractMeta(webHTML)
	if !meta.widthSet && c.opts.MaxWidth > 0 {
		meta.MaxWidth = c.opts.MaxWidth
	}

	var refID uuid.UUID
	id, _ := meta.Get("id")
	if parsed, err := uuid.Parse(id); err == nil {
		refID = parsed
	} else {
		if refID, err = uuid.NewV7(); err != nil {
			return nil, fmt.Errorf("unable to generate document UUID: %w", err)
		}
		c.log.Debug("Document has no valid ID, generated new one", zap.String("id", id), zap.Stringer("ref_id", refID))
	}

	res := c.inliner.Inline(webHTML)
	content := ApplyLinkTracking(res.ContentHTML, c.opts.TrackingPrefix)
	if c.preheader != nil {
		content = c.preheader.Insert(content)
	}

	doc := &Document{
		HTML:     Wrap(content, meta, res.DocumentStyles, c.opts.Defaults),
		Meta:     meta,
		Warnings: res.Warnings,
		RefID:    refID,
		Styles:   css.DumpRules(res.Rules, res.Vars),
	}
	for _, w := range doc.Warnings {
		c.log.Warn("Stylesheet construct dropped", zap.String("warning", w))
	}
	c.log.Debug("Compiled email",
		zap.Stringer("ref_id", refID),
		zap.String("title", meta.Title()),
		zap.Int("max_width", meta.MaxWidth),
		zap.Int("bytes", len(doc.HTML)),
	)
	return doc, nil
}
