package codec

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"serialcompat/fields"
	"serialcompat/internal/match"
)

// OnRestored is implemented by types that rebuild derived state after a
// restore. The codec calls it once per restore, after every persisted field is
// in place, and returns its error to the caller.
type OnRestored interface {
	OnRestored() error
}

// Codec snapshots and restores instances using the tables of a registry.
// A Codec holds no per-call state and is safe for concurrent use on distinct
// instances.
type Codec struct {
	registry *fields.Registry
	logger   *zap.Logger
	metrics  *metrics
}

// Option configures a Codec.
type Option func(*Codec)

// WithRegistry makes the codec resolve tables from r instead of fields.Default.
func WithRegistry(r *fields.Registry) Option {
	return func(c *Codec) { c.registry = r }
}

// WithLogger sets the logger. The codec logs at debug level only, except for
// aborted restores which are logged as warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// WithRegisterer registers the codec's counters with reg. It panics if they
// are already registered there.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Codec) { reg.MustRegister(c.metrics.collectors()...) }
}

// New returns a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		registry: fields.Default,
		logger:   zap.NewNop(),
		metrics:  newMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var std = New()

// Default returns the codec used by the package-level functions.
func Default() *Codec {
	return std
}

// Table returns the field table of obj's dynamic type.
func (c *Codec) Table(obj any) (*fields.Table, error) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		c.metrics.errors.WithLabelValues(errKindInstance).Inc()
		return nil, errors.Wrapf(ErrInvalidInstance, "got %T", obj)
	}

	t, err := c.registry.For(rv.Elem().Type())
	if err != nil {
		c.metrics.errors.WithLabelValues(errKindInstance).Inc()
		return nil, errors.Wrap(err, "serialcompat: resolving fields")
	}

	return t, nil
}

// ListFields returns the descriptors of obj's persistable fields.
func (c *Codec) ListFields(obj any) ([]fields.Descriptor, error) {
	t, err := c.Table(obj)
	if err != nil {
		return nil, err
	}

	return t.Descriptors(), nil
}

// Values reads every persistable field of obj, whatever its visibility.
// Maps and slices are copied one level deep.
func (c *Codec) Values(obj any) (ValueMap, error) {
	_, values, err := c.values(obj)

	return values, err
}

func (c *Codec) values(obj any) (*fields.Table, ValueMap, error) {
	t, err := c.Table(obj)
	if err != nil {
		return nil, nil, err
	}

	out := make(ValueMap, 0, t.Len())

	for _, f := range t.Fields() {
		v, ok, err := f.Get(obj)
		if err != nil {
			c.metrics.errors.WithLabelValues(errKindFieldAccess).Inc()
			return nil, nil, NewFieldAccessError("read", f.Descriptor, err)
		}

		if !ok {
			c.logger.Debug("field has no storage, leaving it out",
				zap.Stringer("type", t.ID()), zap.String("field", f.Name))

			continue
		}

		out = append(out, Entry{Key: f.Name, Value: detach(v)})
	}

	return t, out, nil
}

// Snapshot captures obj's fields into a Current payload.
func (c *Codec) Snapshot(obj any) (Current, error) {
	t, values, err := c.values(obj)
	if err != nil {
		return nil, err
	}

	byKey := lo.SliceToMap(values, func(e Entry) (string, any) { return e.Key, e.Value })

	out := make(Current, len(values))
	for _, name := range t.Names() {
		if v, ok := byKey[name]; ok {
			out[name] = v
		}
	}

	c.metrics.snapshots.Inc()

	return out, nil
}

// LegacyFields returns the names the legacy layer persists for obj.
func (c *Codec) LegacyFields(obj any) (Legacy, error) {
	t, err := c.Table(obj)
	if err != nil {
		return nil, err
	}

	return Legacy(t.Names()), nil
}

// Restore rebuilds obj from p. A Current payload is written field by field;
// a Legacy payload means the values are already in place and only the
// reconstruction hook runs.
func (c *Codec) Restore(obj any, p Payload) error {
	switch p := p.(type) {
	case Current:
		return c.RestoreCurrent(obj, p)
	case Legacy:
		return c.CompleteLegacy(obj)
	default:
		c.metrics.errors.WithLabelValues(errKindMalformed).Inc()
		return malformed("unsupported payload %T", p)
	}
}

// RestoreCurrent writes every field named in p into obj and runs the
// reconstruction hook. Maps and slices are copied one level deep, so obj
// does not share them with p. Fields missing from p keep their current value and
// keys naming no field are ignored.
func (c *Codec) RestoreCurrent(obj any, p Current) error {
	if p == nil {
		c.metrics.errors.WithLabelValues(errKindMalformed).Inc()
		return malformed("nil mapping")
	}

	t, err := c.Table(obj)
	if err != nil {
		return err
	}

	for _, f := range t.Fields() {
		v, ok := p[f.Name]
		if !ok {
			c.logger.Debug("field missing from payload",
				zap.Stringer("type", t.ID()), zap.String("field", f.Name))

			continue
		}

		if err := f.Set(obj, detach(v)); err != nil {
			c.metrics.errors.WithLabelValues(errKindFieldAccess).Inc()
			c.logger.Warn("restore aborted",
				zap.Stringer("type", t.ID()), zap.String("field", f.Name), zap.Error(err))

			return NewFieldAccessError("write", f.Descriptor, err)
		}
	}

	if stray := lo.Without(lo.Keys(p), t.Names()...); len(stray) > 0 {
		c.metrics.strayKeys.Add(float64(len(stray)))
		c.logger.Debug("ignoring payload keys without a field",
			zap.Stringer("type", t.ID()), zap.Strings("keys", stray))

		for _, key := range stray {
			if near := match.Suggest(key, t.Names(), 1, match.DefaultThreshold); len(near) > 0 {
				c.logger.Debug("payload key resembles a field",
					zap.Stringer("type", t.ID()), zap.String("key", key), zap.String("field", near[0]))
			}
		}
	}

	return c.complete(obj, KindCurrent)
}

// CompleteLegacy finishes a legacy restore: the legacy layer has placed the
// values, so only the reconstruction hook runs.
func (c *Codec) CompleteLegacy(obj any) error {
	if _, err := c.Table(obj); err != nil {
		return err
	}

	return c.complete(obj, KindLegacy)
}

func (c *Codec) complete(obj any, k Kind) error {
	if h, ok := obj.(OnRestored); ok {
		if err := h.OnRestored(); err != nil {
			c.metrics.errors.WithLabelValues(errKindHook).Inc()
			return errors.Wrap(err, "serialcompat: reconstruction hook")
		}
	}

	c.metrics.restores.WithLabelValues(k.String()).Inc()

	return nil
}

// ListFields calls Default().ListFields.
func ListFields(obj any) ([]fields.Descriptor, error) { return std.ListFields(obj) }

// Snapshot calls Default().Snapshot.
func Snapshot(obj any) (Current, error) { return std.Snapshot(obj) }

// LegacyFields calls Default().LegacyFields.
func LegacyFields(obj any) (Legacy, error) { return std.LegacyFields(obj) }

// Restore calls Default().Restore.
func Restore(obj any, p Payload) error { return std.Restore(obj, p) }

// RestoreCurrent calls Default().RestoreCurrent.
func RestoreCurrent(obj any, p Current) error { return std.RestoreCurrent(obj, p) }

// CompleteLegacy calls Default().CompleteLegacy.
func CompleteLegacy(obj any) error { return std.CompleteLegacy(obj) }
