package core

// CategoryTotal is the expense total of one category over a range.
// CategoryID is nil for the uncategorized bucket. Limit is the category's
// monthly limit; LimitUsed is Total as a percentage of it.
type CategoryTotal struct {
	CategoryID *string `json:"categoryId"`
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Total      Money   `json:"total"`
	Share      string  `json:"share"` // percentage of all expenses, two decimals
	Count      int     `json:"count"`
	Limit      *Money  `json:"limit,omitempty"`
	LimitUsed  string  `json:"limitUsed,omitempty"`
	OverLimit  bool    `json:"overLimit"`
}

// Stats summarizes the ledger over a range.
type Stats struct {
	Range        DateRange      `json:"range"`
	Balance      Money          `json:"balance"`
	TotalIncome  Money          `json:"totalIncome"`
	TotalExpense Money          `json:"totalExpense"`
	TopCategory  *CategoryTotal `json:"topCategory"`
	EntryCount   int            `json:"entryCount"`
}

// CardSpending is the expense total charged to a card in one period.
type CardSpending struct {
	Card      Card   `json:"card"`
	Period    string `json:"period"`
	Spent     Money  `json:"spent"`
	Available Money  `json:"available"`
}
