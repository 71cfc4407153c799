package allocation_test

import (
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/repository"
)

func repositoryFilterForBudget(b *budget.Budget) repository.AllocationFilter {
	return repository.AllocationFilter{BudgetID: &b.ID}
}
