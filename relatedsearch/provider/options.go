package provider

import (
	"net/url"

	"github.com/rs/zerolog"

	"github.com/krew-solutions/relatedsearch-go/relatedsearch/record"
	"github.com/krew-solutions/relatedsearch-go/relatedsearch/sort"
)

const DefaultPageSize = 10

// Config holds the provider defaults.
type Config struct {
	PageSize int

	// SortVarSuffix and PageVarSuffix are appended to the provider ID to name the request
	// parameters holding the sort directive and the page number
	SortVarSuffix string
	PageVarSuffix string
}

func DefaultConfig() Config {
	return Config{
		PageSize:      DefaultPageSize,
		SortVarSuffix: "_sort",
		PageVarSuffix: "_page",
	}
}

// SortVar is the sort request parameter of the provider with id.
func (c Config) SortVar(id string) string {
	return id + c.SortVarSuffix
}

// PageVar is the page request parameter of the provider with id.
func (c Config) PageVar(id string) string {
	return id + c.PageVarSuffix
}

type settings struct {
	id          string
	config      Config
	paginate    bool
	sort        *sort.Sort
	params      url.Values
	logger      zerolog.Logger
	keenLoading any
	extraKeys   []string
	export      *record.ConvertOptions
	withoutInfo bool
}

type Option func(*settings)

// WithID names the provider; the model name is used by default.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

func WithConfig(config Config) Option {
	return func(s *settings) {
		s.config = config
	}
}

// WithPageSize sets the page size; zero or less disables pagination.
func WithPageSize(size int) Option {
	return func(s *settings) {
		if size <= 0 {
			s.paginate = false
			return
		}
		s.paginate = true
		s.config.PageSize = size
	}
}

func WithSort(srt *sort.Sort) Option {
	return func(s *settings) {
		s.sort = srt
	}
}

// WithParams supplies the request parameters read by sorting and pagination.
func WithParams(params url.Values) Option {
	return func(s *settings) {
		s.params = params
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithKeenLoading configures the relations loaded in batches; see SetWithKeenLoading.
func WithKeenLoading(value any) Option {
	return func(s *settings) {
		s.keenLoading = value
	}
}

// WithExtraKeys adds columns to the select list of every keen batch query.
func WithExtraKeys(columns ...string) Option {
	return func(s *settings) {
		s.extraKeys = append(s.extraKeys, columns...)
	}
}

// WithExport selects the attributes and relations exported by ArrayData and JSONData.
func WithExport(opts *record.ConvertOptions) Option {
	return func(s *settings) {
		s.export = opts
	}
}

// WithoutDataProviderInformation makes ArrayData return the bare record list.
func WithoutDataProviderInformation() Option {
	return func(s *settings) {
		s.withoutInfo = true
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		config:   DefaultConfig(),
		paginate: true,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
