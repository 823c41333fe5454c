package tabular

import (
	"errors"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestCellValue_Numeric(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(32005), Exp: -1, Valid: true}
	assert.Equal(t, 3200.5, cellValue(n))

	assert.Nil(t, cellValue(pgtype.Numeric{}))
	assert.Equal(t, "Male", cellValue("Male"))
}

func TestCellValue_Integers(t *testing.T) {
	assert.Equal(t, 280.0, cellValue(int16(280)))
	assert.Equal(t, 3200.0, cellValue(int32(3200)))
	assert.Equal(t, 3200.0, cellValue(int64(3200)))
}

func TestTableError(t *testing.T) {
	err := tableError("calculator", &pgconn.PgError{Code: undefinedTable})
	assert.True(t, errors.Is(err, ErrTableNotFound))

	err = tableError("calculator", &pgconn.PgError{Code: "28P01"})
	assert.False(t, errors.Is(err, ErrTableNotFound))
	assert.Contains(t, err.Error(), "calculator")
}
