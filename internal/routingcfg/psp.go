package routingcfg

import "github.com/nimbuslab/routing-lab/internal/model"

// PaymentTypeRule is one per-type success-rate rule.
type PaymentTypeRule struct {
	PaymentMethodType model.Key `json:"payment_method_type"`
	SR                uint32    `json:"sr"`
}

// PaymentMethodRule is either a flat success rate or a list of per-type
// rules. Exactly one of the two is populated; SR is used when Types is
// empty.
type PaymentMethodRule struct {
	SR    uint32            `json:"sr,omitempty"`
	Types []PaymentTypeRule `json:"types,omitempty"`
}

// PspTimeConfig is reserved for future latency simulation; the core
// evaluator never reads it.
type PspTimeConfig struct {
	Mean   uint32 `json:"mean"`
	StdDev uint32 `json:"stddev"`
}

// PspDetails is one connector's rule set.
type PspDetails struct {
	PaymentMethods map[model.Key]PaymentMethodRule `json:"payment_methods"`
	PspTimeConfig  *PspTimeConfig                  `json:"psp_time_config,omitempty"`
}

// PspConfig is the full PSP rule set plus the default outcome used when a
// connector or rule fails to match.
type PspConfig struct {
	PspVariants map[model.Key]PspDetails `json:"psp_variants"`
	Otherwise   string                   `json:"otherwise"`
}

// DefaultOutcome returns the configured fallback outcome, defaulting to
// Failure when "otherwise" is missing or not "success".
func (p PspConfig) DefaultOutcome() model.Outcome {
	if p.Otherwise == "success" {
		return model.Success
	}
	return model.Failure
}

// PaymentMethodConfig lists the payment-method-type wildcard rules a
// merchant declares support for.
type PaymentMethodConfig struct {
	PaymentMethodTypes []string `json:"payment_method_types,omitempty"`
}

// ConnectorDetails is one connector's declared support in the merchant
// config.
type ConnectorDetails struct {
	SupportedPaymentMethods map[model.Key]PaymentMethodConfig `json:"supported_payment_methods"`
}

// MerchantConfig maps connector Key to its declared support.
type MerchantConfig struct {
	ConnectorsList map[model.Key]ConnectorDetails `json:"connectors_list"`
}
