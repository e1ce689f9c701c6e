// Package topology converges the logging guild onto the desired channel
// shape: exactly one category and one text channel per logical key. The
// reconciler prefers persisted ids, falls back to exact-name adoption, and
// removes accidental duplicates, so running it any number of times against
// a quiescent guild is idempotent.
package topology

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cord/internal/chat"
	"cord/internal/domain"
	"cord/internal/platform/tracer"
	"cord/internal/topology/metrics"
	"cord/internal/topology/store"
	domainerrors "cord/pkg/domain-errors"
)

// ChannelMap resolves a logical channel key to its live channel id.
type ChannelMap map[string]domain.ChannelID

// Reconciler owns topology convergence for one logging guild.
type Reconciler struct {
	admin        chat.ChannelAdmin
	records      store.RecordStore
	guildID      domain.GuildID
	categoryName string
	layout       []ChannelSpec
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// WithTracer overrides the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(r *Reconciler) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithLayout overrides the channel layout table.
func WithLayout(layout []ChannelSpec) Option {
	return func(r *Reconciler) {
		if len(layout) > 0 {
			r.layout = layout
		}
	}
}

// New constructs a Reconciler with required collaborators and options
// applied.
func New(admin chat.ChannelAdmin, records store.RecordStore, guildID domain.GuildID, categoryName string, opts ...Option) (*Reconciler, error) {
	if admin == nil || records == nil {
		return nil, fmt.Errorf("admin and records are required")
	}
	if guildID.IsZero() || categoryName == "" {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "guild id and category name are required")
	}
	r := &Reconciler{
		admin:        admin,
		records:      records,
		guildID:      guildID,
		categoryName: categoryName,
		layout:       DefaultLayout(),
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Reconcile converges the guild and returns the channel map used for event
// routing. The category must be canonical before any channel resolution
// starts; channel keys then resolve concurrently because their resources
// are disjoint. An error here means the topology could not be provisioned
// and the service cannot start.
func (r *Reconciler) Reconcile(ctx context.Context) (ChannelMap, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, tracer.SpanReconcile)
	var retErr error
	defer func() { span.End(retErr) }()

	record, err := r.records.Load(ctx)
	if err != nil {
		// The record is an optimization, not ground truth. Rebuild from the
		// live guild when it cannot be read.
		r.logger.Warn("topology record unreadable, rebuilding from live state", "error", err)
		record = nil
	}
	if record == nil {
		record = store.NewRecord()
	}

	live, err := r.admin.ListChannels(ctx, r.guildID)
	if err != nil {
		retErr = domainerrors.Wrap(err, domainerrors.CodeTransient, "list guild channels")
		return nil, retErr
	}

	category, preExisting, err := r.ensureCategory(ctx, record, live)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	var children []chat.Channel
	if preExisting {
		for _, ch := range live {
			if ch.ParentID == category.ID && ch.IsText() {
				children = append(children, ch)
			}
		}
	}
	children = r.cleanupDuplicateChannels(ctx, children)

	// Per-key resolution runs in parallel; each goroutine writes only its
	// own slot.
	results := make([]domain.ChannelID, len(r.layout))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range r.layout {
		i, spec := i, spec
		g.Go(func() error {
			id, err := r.ensureChannel(gctx, record, category, children, spec)
			if err != nil {
				return err
			}
			results[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		retErr = err
		return nil, retErr
	}

	channels := make(ChannelMap, len(r.layout))
	for i, spec := range r.layout {
		channels[spec.Key] = results[i]
	}

	if r.metrics != nil {
		r.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}
	r.logger.Info("topology reconciled",
		"category_id", category.ID,
		"channels", len(channels),
		"duration", time.Since(start),
	)
	return channels, nil
}

// ensureCategory resolves the canonical category. preExisting is false only
// when the category was created in this call, in which case it has no
// children to scan or clean.
func (r *Reconciler) ensureCategory(ctx context.Context, record *store.Record, live []chat.Channel) (cat *chat.Channel, preExisting bool, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanEnsureCategory)
	defer func() { span.End(err) }()

	// The persisted pointer is trusted as-is; no duplicate scan when it
	// still resolves to a category.
	if record.CategoryID != "" {
		existing, ferr := r.admin.FetchChannel(ctx, record.CategoryID)
		if ferr == nil && existing.IsCategory() {
			r.logger.Info("using category from topology record", "category_id", existing.ID)
			return existing, true, nil
		}
		if ferr != nil && !domainerrors.Recoverable(ferr) {
			err = ferr
			return nil, false, err
		}
		r.logger.Info("stored category no longer resolves, rediscovering", "category_id", record.CategoryID)
	}

	// Exact name match only. A partial match could adopt an unrelated
	// category.
	var matches []chat.Channel
	for _, ch := range live {
		if ch.IsCategory() && ch.Name == r.categoryName {
			matches = append(matches, ch)
		}
	}

	if len(matches) == 0 {
		created, cerr := r.admin.CreateChannel(ctx, chat.CreateChannelParams{
			GuildID: r.guildID,
			Name:    r.categoryName,
			Type:    chat.ChannelCategory,
		})
		if cerr != nil {
			err = domainerrors.Wrap(cerr, domainerrors.CodeInternal, "create logging category")
			return nil, false, err
		}
		r.persistCategory(ctx, record, created.ID)
		if r.metrics != nil {
			r.metrics.ChannelsCreated.Inc()
		}
		span.SetAttributes(tracer.Bool(tracer.AttrCreated, true))
		r.logger.Info("created logging category", "category_id", created.ID)
		return created, false, nil
	}

	// Adopt the first match; creation order as returned by the guild is the
	// stable tie-break.
	canonical := matches[0]
	r.persistCategory(ctx, record, canonical.ID)
	if r.metrics != nil {
		r.metrics.ChannelsAdopted.Inc()
	}
	span.SetAttributes(tracer.Bool(tracer.AttrAdopted, true))

	if len(matches) > 1 {
		deleted := r.deleteDuplicateCategories(ctx, matches[1:], live)
		span.SetAttributes(tracer.Int64(tracer.AttrDeleted, int64(deleted)))
	}
	return &canonical, true, nil
}

// deleteDuplicateCategories empties and removes each duplicate. Every
// deletion is best-effort: a single failure is logged and the loop
// continues, because leftover duplicates only cost another cleanup attempt
// on the next run.
func (r *Reconciler) deleteDuplicateCategories(ctx context.Context, duplicates, live []chat.Channel) int {
	deleted, failed := 0, 0
	for _, dup := range duplicates {
		for _, child := range live {
			if child.ParentID != dup.ID {
				continue
			}
			if err := r.admin.DeleteChannel(ctx, child.ID, "cleaning up duplicate logging category"); err != nil {
				failed++
				r.logger.Error("failed to delete duplicate category child", "channel_id", child.ID, "error", err)
				continue
			}
			deleted++
		}
		if err := r.admin.DeleteChannel(ctx, dup.ID, "cleaning up duplicate logging categories"); err != nil {
			failed++
			r.logger.Error("failed to delete duplicate category", "category_id", dup.ID, "error", err)
			continue
		}
		deleted++
		r.logger.Info("deleted duplicate category", "category_id", dup.ID)
	}
	if r.metrics != nil {
		r.metrics.DuplicatesDeleted.Add(float64(deleted))
		r.metrics.CleanupFailures.Add(float64(failed))
	}
	return deleted
}

// cleanupDuplicateChannels keeps the first channel per configured name and
// deletes the rest, returning the surviving children.
func (r *Reconciler) cleanupDuplicateChannels(ctx context.Context, children []chat.Channel) []chat.Channel {
	removed := make(map[domain.ChannelID]bool)
	failed := 0
	for _, spec := range r.layout {
		seen := false
		for _, ch := range children {
			if ch.Name != spec.Name {
				continue
			}
			if !seen {
				seen = true
				continue
			}
			if err := r.admin.DeleteChannel(ctx, ch.ID, "cleaning up duplicate logging channels"); err != nil {
				failed++
				r.logger.Error("failed to delete duplicate channel", "channel_id", ch.ID, "name", ch.Name, "error", err)
				continue
			}
			removed[ch.ID] = true
			r.logger.Info("deleted duplicate channel", "channel_id", ch.ID, "name", ch.Name)
		}
	}
	if r.metrics != nil {
		r.metrics.DuplicatesDeleted.Add(float64(len(removed)))
		r.metrics.CleanupFailures.Add(float64(failed))
	}
	if len(removed) == 0 {
		return children
	}
	kept := children[:0]
	for _, ch := range children {
		if !removed[ch.ID] {
			kept = append(kept, ch)
		}
	}
	return kept
}

// ensureChannel resolves one logical key to a live text channel under the
// canonical category.
func (r *Reconciler) ensureChannel(ctx context.Context, record *store.Record, category *chat.Channel, children []chat.Channel, spec ChannelSpec) (id domain.ChannelID, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanEnsureChannel, tracer.String(tracer.AttrChannelKey, spec.Key))
	defer func() { span.End(err) }()

	// A persisted id that still resolves under the canonical category is
	// authoritative; only its topic is reconciled.
	if storedID, ok := record.ChannelID(spec.Key); ok {
		existing, ferr := r.admin.FetchChannel(ctx, storedID)
		if ferr == nil && existing.IsText() && existing.ParentID == category.ID {
			r.reconcileTopic(ctx, existing, spec.Topic)
			return existing.ID, nil
		}
		if ferr != nil && !domainerrors.Recoverable(ferr) {
			err = ferr
			return "", err
		}
		r.logger.Info("stored channel no longer resolves, rediscovering", "key", spec.Key, "channel_id", storedID)
	}

	for _, ch := range children {
		if ch.Name == spec.Name {
			r.persistChannel(ctx, record, spec.Key, ch.ID)
			r.reconcileTopic(ctx, &ch, spec.Topic)
			if r.metrics != nil {
				r.metrics.ChannelsAdopted.Inc()
			}
			span.SetAttributes(tracer.Bool(tracer.AttrAdopted, true))
			return ch.ID, nil
		}
	}

	created, cerr := r.admin.CreateChannel(ctx, chat.CreateChannelParams{
		GuildID:  r.guildID,
		Name:     spec.Name,
		Topic:    spec.Topic,
		Type:     chat.ChannelText,
		ParentID: category.ID,
	})
	if cerr != nil {
		err = domainerrors.Wrap(cerr, domainerrors.CodeInternal, "create logging channel "+spec.Key)
		return "", err
	}
	r.persistChannel(ctx, record, spec.Key, created.ID)
	if r.metrics != nil {
		r.metrics.ChannelsCreated.Inc()
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCreated, true))
	r.logger.Info("created logging channel", "key", spec.Key, "channel_id", created.ID)
	return created.ID, nil
}

func (r *Reconciler) reconcileTopic(ctx context.Context, ch *chat.Channel, topic string) {
	if ch.Topic == topic {
		return
	}
	if err := r.admin.SetTopic(ctx, ch.ID, topic); err != nil {
		r.logger.Warn("failed to reconcile channel topic", "channel_id", ch.ID, "error", err)
	}
}

// persistCategory and persistChannel update one record field each. A write
// failure downgrades the record to a cache miss on the next start, so it is
// logged, not propagated.
func (r *Reconciler) persistCategory(ctx context.Context, record *store.Record, id domain.ChannelID) {
	record.CategoryID = id
	if err := r.records.SetCategoryID(ctx, id); err != nil {
		r.logger.Warn("failed to persist category id", "category_id", id, "error", err)
	}
}

func (r *Reconciler) persistChannel(ctx context.Context, record *store.Record, key string, id domain.ChannelID) {
	if err := r.records.SetChannelID(ctx, key, id); err != nil {
		r.logger.Warn("failed to persist channel id", "key", key, "channel_id", id, "error", err)
	}
}
