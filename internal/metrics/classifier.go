package metrics

import (
	"math"
	"strings"

	"github.com/dvloznov/finance-metrics/internal/domain"
)

// Bucket is a financial-statement line a transaction can contribute to.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketNetTradingIncome
	BucketOtherIncome
	BucketTax
	BucketNonOperatingExpense
	BucketOperatingExpense
	BucketCapital
)

func (b Bucket) String() string {
	switch b {
	case BucketNetTradingIncome:
		return "net_trading_income"
	case BucketOtherIncome:
		return "other_income"
	case BucketTax:
		return "tax"
	case BucketNonOperatingExpense:
		return "non_operating_expense"
	case BucketOperatingExpense:
		return "operating_expense"
	case BucketCapital:
		return "capital"
	default:
		return "none"
	}
}

// Rule names reported in Classification.Rule.
const (
	RuleCapital               = "capital"
	RuleTradingIncome         = "trading_income"
	RuleOtherIncome           = "other_income"
	RuleTax                   = "tax"
	RuleNonOperatingExpense   = "non_operating_expense"
	RulePersonnel             = "personnel"
	RuleGeneralAdministrative = "general_and_administrative"
	RuleOperatingExpense      = "operating_expense"
	RuleExpense               = "expense"
	RuleUnmatched             = "unmatched"
	RuleNotIncomeStatement    = "not_income_statement"
)

// Classification is the outcome of classifying one transaction. Amount is
// what the transaction adds to Bucket; it may be zero even when a rule
// matched.
type Classification struct {
	Bucket Bucket
	Amount float64
	Rule   string
}

// labels holds the lower-cased hierarchy labels matched by the rules.
type labels struct {
	l1, l2, l3, l4         string
	nspbL2, nspbL3, nspbL4 string
}

func labelsOf(tx *domain.Transaction) labels {
	return labels{
		l1:     strings.ToLower(tx.AccountL1Name),
		l2:     strings.ToLower(tx.AccountL2Name),
		l3:     strings.ToLower(tx.AccountL3Name),
		l4:     strings.ToLower(tx.AccountL4Name),
		nspbL2: strings.ToLower(tx.NSPBL2Name),
		nspbL3: strings.ToLower(tx.NSPBL3Name),
		nspbL4: strings.ToLower(tx.NSPBL4Name),
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type rule struct {
	name   string
	bucket Bucket
	match  func(l labels) bool
	amount func(v float64) float64
}

func positiveOnly(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

// incomeStatementRules are evaluated in order; the first match wins.
// Non-operating expense must stay ahead of the generic expense rule.
var incomeStatementRules = []rule{
	{
		name:   RuleTradingIncome,
		bucket: BucketNetTradingIncome,
		match: func(l labels) bool {
			return containsAny(l.l1, "direct", "revenue", "trading") ||
				containsAny(l.l2, "revenue", "trading income")
		},
		amount: positiveOnly,
	},
	{
		name:   RuleOtherIncome,
		bucket: BucketOtherIncome,
		match: func(l labels) bool {
			return containsAny(l.l1, "other income", "interest income") ||
				containsAny(l.l2, "other income")
		},
		amount: math.Abs,
	},
	{
		name:   RuleTax,
		bucket: BucketTax,
		match: func(l labels) bool {
			return containsAny(l.l1, "tax") || containsAny(l.l2, "tax") || containsAny(l.l3, "tax")
		},
		amount: math.Abs,
	},
	{
		name:   RuleNonOperatingExpense,
		bucket: BucketNonOperatingExpense,
		match: func(l labels) bool {
			return containsAny(l.l1, "non-operating", "non operating", "financial expense") ||
				containsAny(l.l2, "interest expense", "financial charges")
		},
		amount: math.Abs,
	},
	{
		name:   RulePersonnel,
		bucket: BucketOperatingExpense,
		match:  func(l labels) bool { return containsAny(l.l1, "personnel") },
		amount: math.Abs,
	},
	{
		name:   RuleGeneralAdministrative,
		bucket: BucketOperatingExpense,
		match:  func(l labels) bool { return containsAny(l.l1, "general and administrative") },
		amount: math.Abs,
	},
	{
		name:   RuleOperatingExpense,
		bucket: BucketOperatingExpense,
		match:  func(l labels) bool { return containsAny(l.l1, "operating expense") },
		amount: math.Abs,
	},
	{
		name:   RuleExpense,
		bucket: BucketOperatingExpense,
		match:  func(l labels) bool { return containsAny(l.l1, "expense") },
		amount: math.Abs,
	},
}

// Classify decides which bucket tx contributes to and by how much.
// Capital transactions never reach the income-statement rules.
func Classify(tx domain.Transaction) Classification {
	return classify(&tx)
}

func classify(tx *domain.Transaction) Classification {
	amount := tx.AmountValue()

	if tx.IsCapital() {
		return Classification{Bucket: BucketCapital, Amount: math.Abs(amount), Rule: RuleCapital}
	}
	if !tx.IsIncomeStatement() {
		return Classification{Bucket: BucketNone, Rule: RuleNotIncomeStatement}
	}

	l := labelsOf(tx)
	for _, r := range incomeStatementRules {
		if r.match(l) {
			return Classification{Bucket: r.bucket, Amount: r.amount(amount), Rule: r.name}
		}
	}
	return Classification{Bucket: BucketNone, Rule: RuleUnmatched}
}

// Explanation is a human-oriented trace of one classification.
type Explanation struct {
	Classification
	RawAmount         string
	ParsedAmount      float64
	IsCapital         bool
	IsIncomeStatement bool
	Labels            map[string]string
}

// Explain classifies tx and reports the inputs the rules looked at.
func Explain(tx domain.Transaction) Explanation {
	l := labelsOf(&tx)
	return Explanation{
		Classification:    classify(&tx),
		RawAmount:         tx.Amount,
		ParsedAmount:      tx.AmountValue(),
		IsCapital:         tx.IsCapital(),
		IsIncomeStatement: tx.IsIncomeStatement(),
		Labels: map[string]string{
			"account_l1_name": l.l1,
			"account_l2_name": l.l2,
			"account_l3_name": l.l3,
			"account_l4_name": l.l4,
			"nspb_l2_name":    l.nspbL2,
			"nspb_l3_name":    l.nspbL3,
			"nspb_l4_name":    l.nspbL4,
		},
	}
}
