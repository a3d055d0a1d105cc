package config

const (
	// MaxTitleLength is the maximum length for node titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxTitleLength = 255

	// MaxDepthParam caps the depth query parameter of subtree reads.
	MaxDepthParam = 64

	// DefaultSortGap is the spacing the gap sequencer leaves between siblings.
	DefaultSortGap = 1000
)
