package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string  `json:"nombre" validate:"required"`
	Email    string  `json:"email" validate:"omitempty,email"`
	Role     string  `json:"rol" validate:"required,oneof=director manager advisor"`
	Budget   string  `json:"presupuesto" validate:"required,money"`
	Duration *int    `json:"duracion" validate:"omitempty,gt=0"`
	Password string  `json:"password" validate:"omitempty,min=6"`
	Note     *string `json:"-"`
}

func TestStructValid(t *testing.T) {
	err := Struct(sample{Name: "Ana", Role: "advisor", Budget: "1500.50"})
	assert.NoError(t, err)
}

func TestStructFieldDetails(t *testing.T) {
	zero := 0
	err := Struct(sample{Email: "nope", Role: "owner", Budget: "-3", Duration: &zero, Password: "abc"})
	require.Error(t, err)

	ve, ok := As(err)
	require.True(t, ok)

	got := map[string]string{}
	for _, d := range ve.Details {
		got[d.Field] = d.Message
	}
	assert.Equal(t, "is required", got["nombre"])
	assert.Equal(t, "must be a valid email address", got["email"])
	assert.Equal(t, "must be one of: director, manager, advisor", got["rol"])
	assert.Contains(t, got["presupuesto"], "two decimals")
	assert.Equal(t, "must be greater than 0", got["duracion"])
	assert.Equal(t, "must be at least 6 characters", got["password"])
}

func TestMoneyRejectsThreeDecimals(t *testing.T) {
	err := Struct(sample{Name: "x", Role: "manager", Budget: "10.125"})
	ve, ok := As(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "presupuesto", ve.Details[0].Field)
}

func TestAsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create campaign: %w", Field("gastado", "must not exceed presupuesto"))
	ve, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "gastado", ve.Details[0].Field)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestOrNil(t *testing.T) {
	e := &Error{}
	assert.NoError(t, e.OrNil())
	e.Add("fechaFin", "must be after fechaInicio")
	assert.Error(t, e.OrNil())
	assert.Contains(t, e.Error(), "fechaFin")
}

func TestHas(t *testing.T) {
	e := &Error{}
	assert.False(t, e.Has("presupuesto"))
	e.Add("presupuesto", "must be a non-negative amount with up to two decimals")
	assert.True(t, e.Has("presupuesto"))
	assert.False(t, e.Has("gastado"))
}

type payment struct {
	Amount decimal.Decimal  `json:"monto" validate:"money"`
	Value  *decimal.Decimal `json:"valorInscripcion" validate:"omitempty,money"`
}

func TestMoneyOnDecimal(t *testing.T) {
	assert.NoError(t, Struct(payment{Amount: decimal.RequireFromString("1200.50")}))
	assert.NoError(t, Struct(payment{Amount: decimal.Zero}))

	neg := decimal.RequireFromString("-1")
	err := Struct(payment{Amount: decimal.RequireFromString("9.999"), Value: &neg})
	ve, ok := As(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 2)
}
