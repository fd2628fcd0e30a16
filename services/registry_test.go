package services

import (
	"testing"

	"cryptopayroll/models"
	"cryptopayroll/types"

	"github.com/stretchr/testify/assert"
)

func TestAddEmployeeValidation(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	_, err := registry.AddEmployee("", []string{"0xtokenA"}, 120000)
	assert.ErrorIs(t, err, types.ErrInvalidAccount)

	_, err = registry.AddEmployee("0xalice", []string{"0xtokenA"}, 0)
	assert.ErrorIs(t, err, types.ErrInvalidSalary)

	_, err = registry.AddEmployee("0xalice", []string{"0xtokenA"}, -5)
	assert.ErrorIs(t, err, types.ErrInvalidSalary)

	_, err = registry.AddEmployee("0xalice", nil, 120000)
	assert.ErrorIs(t, err, types.ErrNoTokensSpecified)

	_, err = registry.AddEmployee("0xalice", []string{"0xunregistered"}, 120000)
	assert.ErrorIs(t, err, types.ErrUnknownToken)
}

func TestAddEmployeeRoundTrip(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)
	registerTestToken(t, db, "0xtokenB", "WETH", false, 0)

	id, err := registry.AddEmployee("0xalice", []string{"0xtokenA", "0xtokenB"}, 120000)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	employee, err := registry.GetEmployee(id)
	assert.NoError(t, err)
	assert.Equal(t, "0xalice", employee.AccountAddress)
	assert.Equal(t, int64(120000), employee.YearlySalaryUSD)
	assert.Len(t, employee.Allocations, 2)
	assert.Equal(t, "0xtokenA", employee.Allocations[0].TokenAddress)
	assert.Equal(t, "0xtokenB", employee.Allocations[1].TokenAddress)

	// Initial split sums to exactly 100 with the remainder on the first token.
	assert.Equal(t, 50, employee.Allocations[0].WeightPct)
	assert.Equal(t, 50, employee.Allocations[1].WeightPct)

	assert.False(t, employee.LastPaydayAt.IsZero())
	assert.False(t, employee.LastAllocationAt.IsZero())
}

func TestAddEmployeeDuplicateAccount(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	_, err := registry.AddEmployee("0xalice", []string{"0xtokenA"}, 120000)
	assert.NoError(t, err)

	_, err = registry.AddEmployee("0xalice", []string{"0xtokenA"}, 60000)
	assert.ErrorIs(t, err, types.ErrInvalidAccount)
}

func TestEmployeeIDsNeverReused(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	id1, err := registry.AddEmployee("0xalice", []string{"0xtokenA"}, 120000)
	assert.NoError(t, err)

	assert.NoError(t, registry.RemoveEmployee(id1))

	id2, err := registry.AddEmployee("0xbob", []string{"0xtokenA"}, 60000)
	assert.NoError(t, err)
	assert.Greater(t, id2, id1)

	_, err = registry.GetEmployee(id1)
	assert.ErrorIs(t, err, types.ErrUnknownEmployee)
}

// The aggregate burn rate must equal the recomputation over active employees
// after any sequence of add, salary update and removal.
func TestBurnrateStaysConsistent(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	payroll := NewPayroll(db, &mockLedger{}, 0, 0, 0)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	recompute := func() int64 {
		var employees []models.Employee
		assert.NoError(t, db.Find(&employees).Error)
		var total int64
		for _, e := range employees {
			total += e.YearlySalaryUSD / 12
		}
		return total
	}

	idAlice, err := registry.AddEmployee("0xalice", []string{"0xtokenA"}, 120000)
	assert.NoError(t, err)
	idBob, err := registry.AddEmployee("0xbob", []string{"0xtokenA"}, 66000)
	assert.NoError(t, err)

	burnrate, err := payroll.Burnrate()
	assert.NoError(t, err)
	assert.Equal(t, int64(10000+5500), burnrate)
	assert.Equal(t, recompute(), burnrate)

	assert.NoError(t, registry.SetSalary(idBob, 90000))
	burnrate, err = payroll.Burnrate()
	assert.NoError(t, err)
	assert.Equal(t, int64(10000+7500), burnrate)
	assert.Equal(t, recompute(), burnrate)

	// Removal decrements the aggregate; the historical accounting gap is fixed.
	assert.NoError(t, registry.RemoveEmployee(idAlice))
	burnrate, err = payroll.Burnrate()
	assert.NoError(t, err)
	assert.Equal(t, int64(7500), burnrate)
	assert.Equal(t, recompute(), burnrate)
}

func TestSetSalaryValidation(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	assert.ErrorIs(t, registry.SetSalary(1, 0), types.ErrInvalidSalary)
	assert.ErrorIs(t, registry.SetSalary(99, 120000), types.ErrUnknownEmployee)

	id, err := registry.AddEmployee("0xalice", []string{"0xtokenA"}, 120000)
	assert.NoError(t, err)
	assert.NoError(t, registry.SetSalary(id, 150000))

	employee, err := registry.GetEmployee(id)
	assert.NoError(t, err)
	assert.Equal(t, int64(150000), employee.YearlySalaryUSD)
}

func TestRemoveEmployeeUnknown(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)

	assert.ErrorIs(t, registry.RemoveEmployee(7), types.ErrUnknownEmployee)
}

func TestEmployeeCount(t *testing.T) {
	db := setupDB(t)
	registry := NewRegistry(db)
	registerTestToken(t, db, "0xtokenA", "ANT", false, 0)

	count, err := registry.EmployeeCount()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = registry.AddEmployee("0xalice", []string{"0xtokenA"}, 120000)
	assert.NoError(t, err)
	id, err := registry.AddEmployee("0xbob", []string{"0xtokenA"}, 60000)
	assert.NoError(t, err)

	count, err = registry.EmployeeCount()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	assert.NoError(t, registry.RemoveEmployee(id))
	count, err = registry.EmployeeCount()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEvenSplitRemainder(t *testing.T) {
	allocations := evenSplit([]string{"a", "b", "c"})
	assert.Equal(t, 34, allocations[0].WeightPct)
	assert.Equal(t, 33, allocations[1].WeightPct)
	assert.Equal(t, 33, allocations[2].WeightPct)

	sum := 0
	for _, a := range allocations {
		sum += a.WeightPct
	}
	assert.Equal(t, 100, sum)
}
