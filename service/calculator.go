package service

import (
	"math"

	"github.com/Aashish23092/contribution-calculator/dto"
)

// SelectPolicy returns the single policy for city (and year, when year is
// non-empty). Zero or several matches are errors.
func SelectPolicy(policies []dto.PolicyRecord, city, year string) (dto.PolicyRecord, error) {
	var matches []dto.PolicyRecord
	for _, p := range policies {
		if p.CityName != city {
			continue
		}
		if year != "" && p.Year != year {
			continue
		}
		matches = append(matches, p)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return dto.PolicyRecord{}, &dto.CalcError{Kind: dto.CalcPolicyNotFound, City: city, Year: year}
	default:
		return dto.PolicyRecord{}, &dto.CalcError{Kind: dto.CalcPolicyAmbiguous, City: city, Year: year}
	}
}

type salaryTotal struct {
	sum   float64
	count int
}

// Calculate computes one result per distinct employee name, in the order
// names first appear in salaries. The average is over however many salary
// rows the employee has. Average, base and fee are each rounded to cents
// from their own unrounded value.
func Calculate(policy dto.PolicyRecord, salaries []dto.SalaryRecord) []dto.ResultRecord {
	var order []string
	totals := make(map[string]*salaryTotal)
	for _, s := range salaries {
		t, ok := totals[s.EmployeeName]
		if !ok {
			t = &salaryTotal{}
			totals[s.EmployeeName] = t
			order = append(order, s.EmployeeName)
		}
		t.sum += s.SalaryAmount
		t.count++
	}

	results := make([]dto.ResultRecord, 0, len(order))
	for _, name := range order {
		t := totals[name]
		avg := t.sum / float64(t.count)
		base := ClampBase(avg, policy.BaseMin, policy.BaseMax)
		fee := base * policy.Rate

		results = append(results, dto.ResultRecord{
			EmployeeName:     name,
			AvgSalary:        Round2(avg),
			ContributionBase: Round2(base),
			CompanyFee:       Round2(fee),
		})
	}
	return results
}

// ClampBase snaps v into [lo, hi].
func ClampBase(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
