package dashboard

import (
	"fmt"
	"strings"

	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/utils"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultDecimals = 2
	maxDecimals     = 20
)

// Kind discriminates a resolved Value.
type Kind int

const (
	KindMissing Kind = iota
	KindRecord
	KindLiteral
)

// Value is the outcome of a resolution: a state record, a literal, or nothing.
type Value struct {
	Kind    Kind
	Record  *entity.StateRecord
	Literal any
}

func (v Value) Missing() bool {
	return v.Kind == KindMissing
}

// Raw returns the primary value of a record or the literal itself.
func (v Value) Raw() any {
	switch v.Kind {
	case KindRecord:
		return v.Record.Value
	case KindLiteral:
		return v.Literal
	}
	return nil
}

func (v Value) String() string {
	raw := v.Raw()
	if raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}

// Options controls how Resolve turns a configured entity into a value.
type Options struct {
	// Attribute reads a named attribute instead of the primary value.
	Attribute string
	// Number coerces the reading to a formatted number.
	Number bool
	// Decimals defaults to 2.
	Decimals *int
	// Scale multiplies the reading before formatting, 0 means 1.
	Scale float64
	// AsString defaults to true. When false, numbers are returned as a rounded float64.
	AsString *bool
	// Fallback replaces missing or non-numeric readings.
	Fallback any
	// Locale for number formatting, defaults to the card locale and then English.
	Locale string
}

func (o Options) decimals() int {
	if o.Decimals == nil || *o.Decimals < 0 {
		return defaultDecimals
	}
	return min(*o.Decimals, maxDecimals)
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

func (o Options) asString() bool {
	return o.AsString == nil || *o.AsString
}

// Decimals is a helper for building Options literals.
func Decimals(n int) *int {
	return &n
}

// Resolver looks up configured roles in a state store. It never fails: every
// missing or malformed reading degrades to the fallback or a typed zero value.
type Resolver struct {
	config *CardConfig
	store  StateStore
}

func NewResolver(config *CardConfig, store StateStore) *Resolver {
	return &Resolver{config: config, store: store}
}

// Resolve resolves a dotted path. "<role>.<field>" selects an entity, a single
// segment selects a literal card setting such as has_battery or house_label.
func (r *Resolver) Resolve(path string, opts Options) Value {
	role, field, found := strings.Cut(strings.TrimSpace(path), ".")
	if !found {
		if literal, ok := r.literal(role); ok {
			return Value{Kind: KindLiteral, Literal: literal}
		}
		return r.finish(nil, opts)
	}
	return r.Lookup(Role(role), field, opts)
}

// Lookup resolves the entity configured for role.field.
func (r *Resolver) Lookup(role Role, field string, opts Options) Value {
	var record *entity.StateRecord
	if id, ok := r.config.EntityID(role, field); ok && r.store != nil {
		if found, ok := r.store.State(id); ok {
			record = found
		}
	}
	return r.finish(record, opts)
}

func (r *Resolver) literal(name string) (any, bool) {
	if r.config == nil {
		return nil, false
	}
	switch name {
	case "has_solar_collector":
		return r.config.HasSolarCollector, true
	case "has_battery":
		return r.config.HasBattery, true
	case "house_label":
		return r.config.HouseLabel, true
	}
	return nil, false
}

func (r *Resolver) finish(record *entity.StateRecord, opts Options) Value {
	if !opts.Number {
		return r.plain(record, opts)
	}

	var raw any
	present := false
	if record != nil {
		if opts.Attribute == "" {
			raw, present = record.Value, true
		} else {
			raw, present = record.Attribute(opts.Attribute)
		}
	}
	if present {
		if number, ok := utils.ToFloat64(raw); ok {
			return Value{Kind: KindLiteral, Literal: r.format(number*opts.scale(), opts)}
		}
	}
	return Value{Kind: KindLiteral, Literal: r.numberFallback(opts)}
}

func (r *Resolver) plain(record *entity.StateRecord, opts Options) Value {
	if record == nil {
		return fallbackValue(opts.Fallback)
	}
	if opts.Attribute == "" {
		return Value{Kind: KindRecord, Record: record}
	}
	// false 是合法属性值，和缺失区分
	if attribute, ok := record.Attribute(opts.Attribute); ok {
		return Value{Kind: KindLiteral, Literal: attribute}
	}
	return fallbackValue(opts.Fallback)
}

func fallbackValue(fallback any) Value {
	if fallback == nil {
		return Value{Kind: KindMissing}
	}
	return Value{Kind: KindLiteral, Literal: fallback}
}

func (r *Resolver) format(value float64, opts Options) any {
	decimals := opts.decimals()
	rounded := utils.Round(value, decimals)
	if rounded == 0 {
		rounded = 0 // -0
	}
	if !opts.asString() {
		return rounded
	}
	printer := message.NewPrinter(r.locale(opts))
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), rounded)
}

// numberFallback keeps a fallback that already has the requested type as is and
// converts the others, so callers always get the output type they asked for.
func (r *Resolver) numberFallback(opts Options) any {
	switch fallback := opts.Fallback.(type) {
	case nil:
		return r.format(0, opts)
	case string:
		if opts.asString() {
			return fallback
		}
		if number, ok := utils.ToFloat64(fallback); ok {
			return number
		}
		return 0.0
	default:
		number, ok := utils.ToFloat64(fallback)
		if !opts.asString() {
			if ok {
				return fallback
			}
			return 0.0
		}
		if ok {
			return r.format(number, opts)
		}
		return fmt.Sprint(fallback)
	}
}

func (r *Resolver) locale(opts Options) language.Tag {
	name := opts.Locale
	if name == "" && r.config != nil {
		name = r.config.Locale
	}
	if name == "" {
		return language.English
	}
	tag, err := language.Parse(name)
	if err != nil {
		return language.English
	}
	return tag
}
