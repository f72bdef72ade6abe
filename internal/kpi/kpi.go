// Package kpi holds the canned aggregate queries run against the reporting store.
package kpi

import (
	"context"
	"database/sql"
	"fmt"
)

// Query is one named KPI.
type Query struct {
	ID    string
	Title string
	SQL   string
}

// Result holds the rows a Query produced.
type Result struct {
	Query
	Columns []string
	Rows    [][]any
}

// Queries returns the KPI set in report order.
func Queries() []Query {
	return []Query{
		{
			ID:    "avg_cost",
			Title: "Average Medical Cost",
			SQL:   `SELECT ROUND(AVG(charges), 2) AS avg_cost FROM insurance`,
		},
		{
			ID:    "avg_cost_by_smoker",
			Title: "Average Cost by Smoking Status",
			SQL: `SELECT smoker, ROUND(AVG(charges), 2) AS avg_cost
FROM insurance
GROUP BY smoker
ORDER BY smoker`,
		},
		{
			ID:    "avg_cost_by_region",
			Title: "Average Cost by Region",
			SQL: `SELECT region, ROUND(AVG(charges), 2) AS avg_cost
FROM insurance
GROUP BY region
ORDER BY region`,
		},
		{
			ID:    "top_charges",
			Title: "Top 5 Highest Charges",
			SQL: `SELECT age, bmi, smoker, charges
FROM insurance
ORDER BY charges DESC
LIMIT 5`,
		},
	}
}

// Run executes q and collects every row.
func Run(ctx context.Context, db *sql.DB, q Query) (*Result, error) {
	rows, err := db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, fmt.Errorf("kpi %s: %w", q.ID, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("kpi %s: %w", q.ID, err)
	}
	res := &Result{Query: q, Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("kpi %s: %w", q.ID, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kpi %s: %w", q.ID, err)
	}
	return res, nil
}

// RunAll runs every query from Queries, stopping at the first failure.
func RunAll(ctx context.Context, db *sql.DB) ([]*Result, error) {
	qs := Queries()
	out := make([]*Result, 0, len(qs))
	for _, q := range qs {
		r, err := Run(ctx, db, q)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
