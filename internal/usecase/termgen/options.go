package termgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
	"github.com/kailas-cloud/termgen/internal/domain/scan"
)

// Defaults for the scroll settings.
const (
	DefaultKeepAlive = 10 * time.Minute
	DefaultPageSize  = 100
)

// Options configures one scan run.
type Options struct {
	Index     string
	Type      string
	Fields    []string
	IDField   string
	PageSize  int
	KeepAlive time.Duration
	Names     event.FieldNames
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.IDField == "" {
		o.IDField = scan.DefaultIDField
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = DefaultKeepAlive
	}
	if o.Names.Value == "" {
		o.Names.Value = event.DefaultValueField
	}
	if o.Names.Timestamp == "" {
		o.Names.Timestamp = event.DefaultTimestampField
	}
	return o
}

// Validate rejects blank required settings.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Index) == "" {
		return fmt.Errorf("source.index is invalid: %q: %w", o.Index, domain.ErrInvalidConfig)
	}
	if strings.TrimSpace(o.Type) == "" {
		return fmt.Errorf("source.type is invalid: %q: %w", o.Type, domain.ErrInvalidConfig)
	}
	if len(o.Fields) == 0 {
		return fmt.Errorf("source.fields is empty: %w", domain.ErrInvalidConfig)
	}
	for i, f := range o.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("source.fields[%d] is blank: %w", i, domain.ErrInvalidConfig)
		}
	}
	return nil
}

func (o Options) scanRequest() scan.Request {
	return scan.Request{
		Index:     o.Index,
		Type:      o.Type,
		IDField:   o.IDField,
		Size:      o.PageSize,
		KeepAlive: o.KeepAlive,
	}
}
