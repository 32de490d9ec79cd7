package notion

import (
	"errors"

	"github.com/foospace/sprintsync/internal/tracker"
)

// SourceName is the registry name of the Notion record source.
const SourceName = "notion"

func init() {
	tracker.Register(SourceName, func(cfg tracker.SourceConfig) (tracker.RecordSource, error) {
		return NewSource(cfg)
	})
}

// Source adapts Client to the tracker.RecordSource contract.
type Source struct {
	*Client
}

var _ tracker.RecordSource = (*Source)(nil)

// NewSource builds a Notion source. A token is required.
func NewSource(cfg tracker.SourceConfig) (*Source, error) {
	if cfg.Token == "" {
		return nil, errors.New("notion token is empty")
	}
	c := NewClient(cfg.Token, cfg.APIVersion)
	if cfg.BaseURL != "" {
		c = c.WithBaseURL(cfg.BaseURL)
	}
	return &Source{Client: c}, nil
}

// Name implements tracker.RecordSource.
func (s *Source) Name() string { return SourceName }
