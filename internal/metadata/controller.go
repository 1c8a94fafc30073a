// Package metadata drives the oracle to a validated metadata record for one document.
package metadata

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joseph-ayodele/site-records/constants"
	"github.com/joseph-ayodele/site-records/internal/address"
	"github.com/joseph-ayodele/site-records/internal/llm"
	"github.com/joseph-ayodele/site-records/internal/textnorm"
)

var tracer = otel.Tracer("github.com/joseph-ayodele/site-records/internal/metadata")

// State is a step of the per-document extraction state machine.
type State string

const (
	StateInit                   State = "INIT"
	StateShortCircuitUnreadable State = "SHORT_CIRCUIT_UNREADABLE"
	StateExtracting             State = "EXTRACTING"
	StateValidatingFields       State = "VALIDATING_FIELDS"
	StateDone                   State = "DONE"
)

// Config holds the retry bounds and token ceilings.
type Config struct {
	MinTokens      int // default 50
	KeyRetries     int // default 10
	TitleRetries   int // default 5
	FieldRetries   int // default 5
	SiteIDRetries  int // default 5
	TitleMaxTokens int // default 25
	PartyMaxTokens int // default 17
}

// Session is the cross-document state shared by one run.
type Session struct {
	Flags     *ReviewFlags
	Addresses *address.Cache
}

func NewSession() *Session {
	return &Session{Flags: NewReviewFlags(), Addresses: address.NewCache()}
}

// Result is the resolved metadata of one document. Absent text values are "none";
// an unresolved site ID is "".
type Result struct {
	Record        llm.Record
	Readable      constants.Readable
	SiteID        string
	SiteIDSource  SiteIDSource
	AddressSource address.Source
	States        []State
}

type Controller struct {
	cfg        Config
	oracle     llm.MetadataOracle
	prompts    *llm.Prompts
	reprompter *Reprompter
	siteIDs    *SiteIDResolver
	addresses  *address.Resolver
	logger     *slog.Logger
}

func NewController(cfg Config, oracle llm.MetadataOracle, prompts *llm.Prompts, addresses *address.Resolver, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if prompts == nil {
		prompts = llm.NewPrompts(0)
	}
	if addresses == nil {
		addresses = address.NewResolver(nil, logger)
	}
	if cfg.MinTokens <= 0 {
		cfg.MinTokens = textnorm.DefaultMinTokens
	}
	if cfg.KeyRetries <= 0 {
		cfg.KeyRetries = 10
	}
	if cfg.TitleRetries <= 0 {
		cfg.TitleRetries = 5
	}
	if cfg.FieldRetries <= 0 {
		cfg.FieldRetries = DefaultFieldRetries
	}
	if cfg.SiteIDRetries <= 0 {
		cfg.SiteIDRetries = DefaultFieldRetries
	}
	if cfg.TitleMaxTokens <= 0 {
		cfg.TitleMaxTokens = TitleMaxTokens
	}
	if cfg.PartyMaxTokens <= 0 {
		cfg.PartyMaxTokens = PartyMaxTokens
	}
	return &Controller{
		cfg:        cfg,
		oracle:     oracle,
		prompts:    prompts,
		reprompter: NewReprompter(oracle, prompts, cfg.FieldRetries, logger),
		siteIDs:    NewSiteIDResolver(NewReprompter(oracle, prompts, cfg.SiteIDRetries, logger), logger),
		addresses:  addresses,
		logger:     logger,
	}
}

// Extract runs the state machine for one document. text must already be normalized.
// Review flags for filename are added to sess.Flags.
func (c *Controller) Extract(ctx context.Context, sess *Session, filename, text string) (Result, error) {
	ctx, span := tracer.Start(ctx, "extract.metadata")
	defer span.End()
	start := time.Now()

	res := Result{States: []State{StateInit}}

	if textnorm.TooShort(text, c.cfg.MinTokens) {
		res.States = append(res.States, StateShortCircuitUnreadable)
		res.Record = llm.NoneRecord()
		res.Readable = constants.ReadableNo
		res.Record.Readable = string(constants.ReadableNo)
		sess.Flags.Flag(filename, constants.ReviewUnreadable)
		c.logger.Info("extract.short_circuit.unreadable",
			"file", filename, "tokens", textnorm.TokenCount(text), "min_tokens", c.cfg.MinTokens)

		c.resolveSite(ctx, sess, filename, text, false, &res)
		res.States = append(res.States, StateDone)
		span.SetAttributes(attribute.Bool("extract.short_circuit", true))
		return res, nil
	}

	res.States = append(res.States, StateExtracting)
	prompt := c.prompts.Render(llm.PromptMetadata, text)

	rec, ok := c.queryWellFormed(ctx, filename, prompt)
	if !ok {
		sess.Flags.Flag(filename, constants.ReviewOracle)
	}
	for i := 0; i < c.cfg.TitleRetries && constants.IsNone(rec.Title) && constants.ParseReadable(rec.Readable) != constants.ReadableNo; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c.logger.Info("extract.title.retry", "file", filename, "attempt", i+1)
		rec, ok = c.queryWellFormed(ctx, filename, prompt)
		if !ok {
			sess.Flags.Flag(filename, constants.ReviewOracle)
		}
	}
	for _, k := range llm.RecordKeys {
		rec.Set(k, constants.OrNone(rec.Get(k)))
	}

	res.States = append(res.States, StateValidatingFields)
	res.Readable = constants.ParseReadable(rec.Readable)
	rec.Readable = string(res.Readable)

	if res.Readable == constants.ReadableNo {
		rec.Title, rec.Sender, rec.Receiver = constants.None, constants.None, constants.None
		sess.Flags.Flag(filename, constants.ReviewUnreadable)
		c.logger.Info("extract.oracle.unreadable", "file", filename)
	} else {
		ground := NewGrounding(text)
		fields := []struct {
			key       string
			maxTokens int
		}{
			{llm.KeyTitle, c.cfg.TitleMaxTokens},
			{llm.KeySender, c.cfg.PartyMaxTokens},
			{llm.KeyReceiver, c.cfg.PartyMaxTokens},
		}
		for _, f := range fields {
			if c.reprompter.ValidateAndReprompt(ctx, f.key, f.maxTokens, &rec, ground, text) {
				sess.Flags.Flag(filename, f.key)
			}
		}
	}
	res.Record = rec

	c.resolveSite(ctx, sess, filename, text, true, &res)
	res.States = append(res.States, StateDone)

	c.logger.Info("extract.done",
		"file", filename,
		"site_id", res.SiteID,
		"site_id_source", string(res.SiteIDSource),
		"readable", string(res.Readable),
		"address_source", string(res.AddressSource),
		"flags", sess.Flags.Fields(filename),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, ctx.Err()
}

// queryWellFormed asks for the full record until it carries exactly the six keys.
// A transport failure yields the none-shaped record, which ends the loop. The bool is
// false only when every attempt came back malformed.
func (c *Controller) queryWellFormed(ctx context.Context, filename, prompt string) (llm.Record, bool) {
	for attempt := 1; attempt <= c.cfg.KeyRetries; attempt++ {
		rec, err := c.oracle.QueryRecord(ctx, prompt)
		if err == nil {
			return rec, true
		}
		if !errors.Is(err, llm.ErrMalformedRecord) {
			c.logger.Error("extract.oracle.failed", "file", filename, "attempt", attempt, "error", err)
			return llm.NoneRecord(), true
		}
		c.logger.Warn("extract.oracle.malformed", "file", filename, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	c.logger.Error("extract.oracle.exhausted", "file", filename, "key_retries", c.cfg.KeyRetries)
	return llm.NoneRecord(), false
}

func (c *Controller) resolveSite(ctx context.Context, sess *Session, filename, text string, allowOracle bool, res *Result) {
	res.SiteID, res.SiteIDSource = c.siteIDs.Resolve(ctx, filename, res.Record.SiteID, text, allowOracle)
	if res.SiteID == "" {
		res.Record.SiteID = constants.None
		sess.Flags.Flag(filename, constants.ReviewSiteID)
	} else {
		res.Record.SiteID = res.SiteID
	}

	addr, src := c.addresses.Resolve(sess.Addresses, res.SiteID, res.Record.Address)
	res.Record.Address = addr
	res.AddressSource = src
}
