// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pdiddy/research-dashboard/pkg/types"
)

// orcidSearchBase is the ORCID public expanded-search endpoint. Declared as
// a var so tests can substitute an httptest server.
var orcidSearchBase = "https://pub.orcid.org/v3.0/expanded-search/"

// ORCIDSource looks up researchers in the ORCID registry.
type ORCIDSource struct {
	t Transport
}

// NewORCIDSource returns a source issuing requests through t.
func NewORCIDSource(t Transport) *ORCIDSource {
	return &ORCIDSource{t: t}
}

// Name returns the source identifier.
func (s *ORCIDSource) Name() string { return "orcid" }

// Search returns up to rows registry entries matching query.
func (s *ORCIDSource) Search(ctx context.Context, query string, rows int) []types.AuthorStub {
	if rows <= 0 {
		rows = 10
	}
	params := url.Values{
		"q":    {query},
		"rows": {strconv.Itoa(rows)},
	}
	raws := s.t.Get(ctx, orcidSearchBase, params).Records("expanded-result")
	out := make([]types.AuthorStub, 0, len(raws))
	for _, raw := range raws {
		if a := normalizeAuthor(raw); a.ORCID != "" {
			out = append(out, a)
		}
	}
	return out
}

func normalizeAuthor(raw types.RawRecord) types.AuthorStub {
	return types.AuthorStub{
		ORCID:        stringField(raw, "orcid-id"),
		GivenNames:   stringField(raw, "given-names"),
		FamilyNames:  stringField(raw, "family-names"),
		Institutions: stringList(raw, "institution-name"),
	}
}
