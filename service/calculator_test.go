package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/contribution-calculator/dto"
)

var foshan2024 = dto.PolicyRecord{CityName: "佛山", Year: "2024", BaseMin: 3000, BaseMax: 28000, Rate: 0.32}

func salary(name string, amount float64) dto.SalaryRecord {
	return dto.SalaryRecord{EmployeeName: name, SalaryAmount: amount}
}

func TestCalculateWithinBand(t *testing.T) {
	results := Calculate(foshan2024, []dto.SalaryRecord{
		salary("张三", 5000), salary("张三", 5000), salary("张三", 7000),
	})

	require.Len(t, results, 1)
	assert.Equal(t, "张三", results[0].EmployeeName)
	assert.Equal(t, 5666.67, results[0].AvgSalary)
	assert.Equal(t, 5666.67, results[0].ContributionBase)
	assert.Equal(t, 1813.33, results[0].CompanyFee)
}

func TestCalculateClampsToMin(t *testing.T) {
	results := Calculate(foshan2024, []dto.SalaryRecord{salary("李四", 1000), salary("李四", 2000)})

	require.Len(t, results, 1)
	assert.Equal(t, 1500.0, results[0].AvgSalary)
	assert.Equal(t, 3000.0, results[0].ContributionBase)
	assert.Equal(t, 960.0, results[0].CompanyFee)
}

func TestCalculateClampsToMax(t *testing.T) {
	results := Calculate(foshan2024, []dto.SalaryRecord{salary("王五", 40000)})

	require.Len(t, results, 1)
	assert.Equal(t, 40000.0, results[0].AvgSalary)
	assert.Equal(t, 28000.0, results[0].ContributionBase)
	assert.Equal(t, 8960.0, results[0].CompanyFee)
}

func TestCalculateFirstAppearanceOrder(t *testing.T) {
	results := Calculate(foshan2024, []dto.SalaryRecord{
		salary("王五", 9000), salary("张三", 5000), salary("王五", 11000), salary("李四", 4000), salary("张三", 6000),
	})

	require.Len(t, results, 3)
	assert.Equal(t, "王五", results[0].EmployeeName)
	assert.Equal(t, 10000.0, results[0].AvgSalary)
	assert.Equal(t, "张三", results[1].EmployeeName)
	assert.Equal(t, 5500.0, results[1].AvgSalary)
	assert.Equal(t, "李四", results[2].EmployeeName)
}

func TestCalculateGroupsByExactName(t *testing.T) {
	results := Calculate(foshan2024, []dto.SalaryRecord{salary("张三", 5000), salary("张三 ", 7000)})
	assert.Len(t, results, 2)
}

func TestCalculateFeeRoundedFromUnroundedBase(t *testing.T) {
	// 1000.0054 * 0.9 = 900.00486 rounds to 900.00; rounding the base first
	// would give 1000.01 * 0.9 = 900.009, i.e. 900.01.
	policy := dto.PolicyRecord{BaseMin: 0, BaseMax: 100000, Rate: 0.9}
	results := Calculate(policy, []dto.SalaryRecord{salary("赵六", 1000.0054)})

	require.Len(t, results, 1)
	assert.Equal(t, 1000.01, results[0].AvgSalary)
	assert.Equal(t, 1000.01, results[0].ContributionBase)
	assert.Equal(t, 900.0, results[0].CompanyFee)
}

func TestCalculateNoSalaries(t *testing.T) {
	assert.Empty(t, Calculate(foshan2024, nil))
}

func TestClampBase(t *testing.T) {
	assert.Equal(t, 3000.0, ClampBase(2999.99, 3000, 28000))
	assert.Equal(t, 3000.0, ClampBase(3000, 3000, 28000))
	assert.Equal(t, 12345.6, ClampBase(12345.6, 3000, 28000))
	assert.Equal(t, 28000.0, ClampBase(28000, 3000, 28000))
	assert.Equal(t, 28000.0, ClampBase(28000.01, 3000, 28000))
	assert.Equal(t, 5000.0, ClampBase(1, 5000, 5000))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1813.33, Round2(5666.666666666667*0.32))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, 0.0, Round2(0))
}

func TestSelectPolicy(t *testing.T) {
	policies := []dto.PolicyRecord{
		{ID: "a", CityName: "广州", Year: "2024"},
		{ID: "b", CityName: "佛山", Year: "2023"},
		{ID: "c", CityName: "佛山", Year: "2024"},
	}

	p, err := SelectPolicy(policies, "广州", "")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)

	p, err = SelectPolicy(policies, "佛山", "2024")
	require.NoError(t, err)
	assert.Equal(t, "c", p.ID)

	_, err = SelectPolicy(policies, "佛山", "")
	assert.True(t, IsCalcError(err, dto.CalcPolicyAmbiguous))

	_, err = SelectPolicy(policies, "深圳", "")
	assert.True(t, IsCalcError(err, dto.CalcPolicyNotFound))
	assert.Contains(t, err.Error(), "深圳")
}
