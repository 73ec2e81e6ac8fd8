package docstore

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/resilience"
)

// TitleLookup is implemented by Store.
type TitleLookup interface {
	Titles(ctx context.Context, ids []string) (map[string]string, error)
}

// GuardedTitles stops title lookups while the database keeps failing, so a
// slow or unreachable store does not add its timeout to every search.
type GuardedTitles struct {
	src     TitleLookup
	breaker *resilience.CircuitBreaker
}

func NewGuardedTitles(src TitleLookup, breaker *resilience.CircuitBreaker) *GuardedTitles {
	return &GuardedTitles{src: src, breaker: breaker}
}

func (g *GuardedTitles) Titles(ctx context.Context, ids []string) (map[string]string, error) {
	var titles map[string]string
	err := g.breaker.Execute(func() error {
		var err error
		titles, err = g.src.Titles(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return titles, nil
}
