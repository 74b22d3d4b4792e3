// Package eligibility implements the merchant filter: given a sampled
// context, it returns the connectors the merchant has declared support for,
// honoring the "*" payment-method-type wildcard.
package eligibility

import (
	"sort"

	"github.com/nimbuslab/routing-lab/internal/model"
	"github.com/nimbuslab/routing-lab/internal/routingcfg"
)

const wildcard = "*"

// Eligible returns the connectors declared eligible for ctx's payment method
// and type, in deterministic key order (the merchant config's own
// iteration order has no intrinsic order in Go maps, so callers that need
// stability get it from this sort instead; ties are not otherwise broken).
func Eligible(ctx model.Context, merchant routingcfg.MerchantConfig) []model.Key {
	pm := model.Key(ctx["payment_methods"])
	pmt, hasType := ctx["payment_method_type"]

	names := make([]model.Key, 0, len(merchant.ConnectorsList))
	for name := range merchant.ConnectorsList {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	var eligible []model.Key
	for _, name := range names {
		details := merchant.ConnectorsList[name]
		support, ok := details.SupportedPaymentMethods[pm]
		if !ok {
			continue
		}
		if !hasType || typeSupported(support.PaymentMethodTypes, pmt) {
			eligible = append(eligible, name)
		}
	}
	return eligible
}

func typeSupported(types []string, pmt string) bool {
	for _, t := range types {
		if t == wildcard || t == pmt {
			return true
		}
	}
	return false
}
