package suitability

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/suitability-cli/internal/raster"
)

// GroupTerms reduces each group to the single raster term it contributes
// to the multiplicative chain: the member's score grid for singletons,
// the cellwise maximum across members otherwise.
func GroupTerms(norm []*NormalizedLayer, groups []Group) ([]*raster.Grid, error) {
	terms := make([]*raster.Grid, 0, len(groups))
	for _, grp := range groups {
		if len(grp.Members) == 0 {
			return nil, eris.New("suitability: empty combine group")
		}
		term := norm[grp.Members[0]].Score
		for _, m := range grp.Members[1:] {
			var err error
			term, err = raster.Max(term, norm[m].Score)
			if err != nil {
				return nil, eris.Wrap(err, "suitability: group maximum")
			}
		}
		terms = append(terms, term)
	}
	return terms, nil
}

// Aggregate multiplies the group terms cellwise and applies the
// geometric-mean correction: product^(1/n), n = number of terms. Each
// group contributes exactly one degree of freedom, not one per original
// layer. Zero terms is a precondition violation and fails fast.
func Aggregate(terms []*raster.Grid) (*raster.Grid, error) {
	if len(terms) == 0 {
		return nil, eris.New("suitability: no combination terms (at least one layer required)")
	}

	product := terms[0]
	for _, term := range terms[1:] {
		var err error
		product, err = raster.Mul(product, term)
		if err != nil {
			return nil, eris.Wrap(err, "suitability: multiply terms")
		}
	}

	if len(terms) == 1 {
		return product.Clone(), nil
	}
	return raster.PowScalar(product, 1/float64(len(terms))), nil
}
