package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/donation/model"
	"library-backend/pkg/database"
)

func TestBuildListQuery(t *testing.T) {
	donor := uuid.New()

	page, count := buildListQuery(model.ListRequest{Status: model.StatusPending, UserID: &donor, Page: 2, Limit: 5})

	sql, args, err := database.ToSQL(page)
	require.NoError(t, err)
	assert.Contains(t, sql, `"donation_status" = `)
	assert.Contains(t, sql, `"user_id" = `)
	assert.Contains(t, sql, `ORDER BY "donation_date" DESC, "donation_id" DESC`)
	assert.Contains(t, args, "pending")
	assert.Contains(t, args, donor.String())
	assert.Contains(t, args, int64(5))

	countSQL, countArgs, err := database.ToSQL(count)
	require.NoError(t, err)
	assert.Contains(t, countSQL, "COUNT(*)")
	assert.Len(t, countArgs, 2)
}
