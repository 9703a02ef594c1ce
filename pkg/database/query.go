package database

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// Dialect builds postgres SQL with $n placeholders.
var Dialect = goqu.Dialect("postgres")

// Page applies limit/offset to a select.
func Page(ds *goqu.SelectDataset, limit, offset int) *goqu.SelectDataset {
	return ds.Limit(uint(limit)).Offset(uint(offset))
}

// ToSQL renders a prepared statement and its arguments.
func ToSQL(ds *goqu.SelectDataset) (string, []interface{}, error) {
	return ds.Prepared(true).ToSQL()
}
