package ordix

type options struct {
	degree       int
	metadataPath string
	cacheSize    int
	storage      *Storage
	logger       Logger
}

func defaultOptions() options {
	return options{
		degree: 100,
		logger: DiscardLogger{},
	}
}

// Option configures a tree using the functional options pattern.
type Option func(*options)

// WithDegree sets the maximum key count per node plus one. Degrees
// below 2 fail construction. When reopening an existing metadata file
// its recorded degree wins.
func WithDegree(degree int) Option {
	return func(o *options) {
		o.degree = degree
	}
}

// WithMetadata enables persistence. The metadata file pins the storage
// identity and root position; by default the storage file sits next to
// it with a ".storage" suffix.
func WithMetadata(path string) Option {
	return func(o *options) {
		o.metadataPath = path
	}
}

// WithCacheSize bounds the number of resident nodes. Values below
// MinCacheSize are raised to it.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithStorage injects a pre-constructed storage handle instead of the
// default layout derived from the metadata path.
func WithStorage(s *Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
