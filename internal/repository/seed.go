package repository

import (
	"github.com/blureserve/seat-reservation/internal/model"
	"github.com/blureserve/seat-reservation/internal/utils"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "password"

// SeedDemo loads a manager (emp 1, username "manager") with a funded
// account and a report (emp 2, username "employee") into s.
func SeedDemo(s *MemoryStore, bcryptCost int) error {
	hash, err := utils.HashPassword(DemoPassword, bcryptCost)
	if err != nil {
		return err
	}
	s.AddEmployee(model.Employee{ID: 1})
	s.AddEmployee(model.Employee{ID: 2, ManagerID: 1})
	s.AddFundAccount(model.FundAccount{EmployeeID: 1, CurrentFunds: 100000})
	s.AddCredential(model.Credential{Username: "manager", PasswordHash: hash, EmployeeID: 1})
	s.AddCredential(model.Credential{Username: "employee", PasswordHash: hash, EmployeeID: 2})
	return nil
}
