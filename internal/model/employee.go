package model

// Employee is a row of the `employees` table.  Employees are reference
// data maintained outside this service; the reservation flow only needs
// to know who an employee reports to so that reservation charges land
// on the right fund account.
//
// Fields:
//  ID        – employee number, primary key.
//  ManagerID – employee number of the reporting manager (0 when none).
type Employee struct {
	ID        int64 `db:"emp_id"`     // employees.emp_id
	ManagerID int64 `db:"manager_id"` // employees.manager_id
}

// HasManager reports whether the employee has a reporting manager.
func (e Employee) HasManager() bool { return e.ManagerID > 0 }

// Credential is a row of the `employee_credentials` table.  Only the
// bcrypt hash of the password is stored.
//
// Fields:
//  Username     – login name, unique.
//  PasswordHash – bcrypt hash of the password.
//  EmployeeID   – employee the credential authenticates.
type Credential struct {
	Username     string `db:"username"`      // employee_credentials.username
	PasswordHash string `db:"password_hash"` // employee_credentials.password_hash
	EmployeeID   int64  `db:"emp_id"`        // employee_credentials.emp_id
}
