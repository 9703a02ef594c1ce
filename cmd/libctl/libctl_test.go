package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/borrowing/model"
)

func TestPromptPassword(t *testing.T) {
	t.Run("matching entries", func(t *testing.T) {
		var out bytes.Buffer

		pw, err := promptPassword(&out, strings.NewReader("s3cret!\ns3cret!\n"))

		require.NoError(t, err)
		assert.Equal(t, "s3cret!", pw)
		assert.Contains(t, out.String(), "Confirm password:")
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := promptPassword(&bytes.Buffer{}, strings.NewReader("one\ntwo\n"))

		assert.ErrorIs(t, err, errPasswordMismatch)
	})

	t.Run("missing confirmation", func(t *testing.T) {
		_, err := promptPassword(&bytes.Buffer{}, strings.NewReader("only-once\n"))

		assert.Error(t, err)
	})
}

func TestRenderOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	items := []model.BorrowingDetail{{
		Borrowing: model.Borrowing{
			BorrowingID: "01HZX3",
			BookID:      7,
			UserID:      uuid.MustParse("6f1c2b1e-8a3d-4b8e-9a53-2f2d7f1b0c11"),
			DueDate:     now.Add(-72 * time.Hour),
			Status:      model.StatusBorrowed,
		},
		BookTitle: "Dune",
	}}

	var out bytes.Buffer
	require.NoError(t, renderOverdue(&out, items, 5, now))

	text := out.String()
	assert.Contains(t, text, "DAYS LATE")
	assert.Contains(t, text, "Dune")
	assert.Contains(t, text, "2026-03-07")
	assert.Contains(t, text, "showing 1 of 5")
}

func TestRenderOverdue_Empty(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, renderOverdue(&out, nil, 0, time.Now()))

	assert.Equal(t, "no overdue borrowings\n", out.String())
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"migrate", "create-librarian", "overdue"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
