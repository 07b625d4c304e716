package output

import "context"

// Settings carries the output-related global flags of one command run.
type Settings struct {
	Format   Format
	Query    string // gojq expression applied to structured output
	Limit    int    // 0 = unlimited
	SortBy   string // dotted field path
	SortDesc bool
	Quiet    bool
	Yes      bool // skip confirmation prompts
}

type settingsKey struct{}

// WithSettings attaches s to ctx, replacing any previous settings.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// SettingsFromContext returns the settings attached to ctx. A context without
// settings yields text output with no query, limit or sort.
func SettingsFromContext(ctx context.Context) Settings {
	if ctx != nil {
		if s, ok := ctx.Value(settingsKey{}).(Settings); ok {
			if s.Format == "" {
				s.Format = FormatText
			}
			return s
		}
	}
	return Settings{Format: FormatText}
}

// WithFormat overrides only the output format.
func WithFormat(ctx context.Context, format Format) context.Context {
	s := SettingsFromContext(ctx)
	s.Format = format
	return WithSettings(ctx, s)
}

// FormatFromContext returns the output format, FormatText when unset.
func FormatFromContext(ctx context.Context) Format {
	return SettingsFromContext(ctx).Format
}

// WithLimit overrides only the result limit.
func WithLimit(ctx context.Context, limit int) context.Context {
	s := SettingsFromContext(ctx)
	s.Limit = limit
	return WithSettings(ctx, s)
}

// WithSort overrides only the sort field and direction.
func WithSort(ctx context.Context, field string, desc bool) context.Context {
	s := SettingsFromContext(ctx)
	s.SortBy, s.SortDesc = field, desc
	return WithSettings(ctx, s)
}

// WithQuery overrides only the gojq expression.
func WithQuery(ctx context.Context, query string) context.Context {
	s := SettingsFromContext(ctx)
	s.Query = query
	return WithSettings(ctx, s)
}
