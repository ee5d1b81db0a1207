package cmd

// Options holds the shared command-line options for the memomirror CLI.
type Options struct {
	Verbosity int

	// Sync options
	Page   int
	Labels []string
	Force  bool

	// History options
	Limit int
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Page: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithPage sets the issues page to sync.
func WithPage(page int) Option {
	return func(o *Options) {
		o.Page = page
	}
}

// WithLabels sets the label filter.
func WithLabels(labels []string) Option {
	return func(o *Options) {
		o.Labels = labels
	}
}

// WithForce forces a full sync regardless of sync history.
func WithForce(force bool) Option {
	return func(o *Options) {
		o.Force = force
	}
}

// WithLimit sets the maximum number of history records shown.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}
