package handlers

import (
	"strconv"

	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
)

type AddEmployeeRequest struct {
	AccountAddress  string   `json:"account_address" validate:"required"`
	AllowedTokens   []string `json:"allowed_tokens" validate:"required,min=1"`
	YearlySalaryUSD int64    `json:"yearly_salary_usd" validate:"required,gt=0"`
}

type SetSalaryRequest struct {
	YearlySalaryUSD int64 `json:"yearly_salary_usd" validate:"required,gt=0"`
}

func parseEmployeeID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, types.ErrUnknownEmployee
	}
	return id, nil
}

func AddEmployee(c *fiber.Ctx) error {
	var req AddEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	id, err := Registry.AddEmployee(req.AccountAddress, req.AllowedTokens, req.YearlySalaryUSD)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Employee added successfully",
		Data: map[string]interface{}{
			"employee_id": id,
		},
	})
}

func SetSalary(c *fiber.Ctx) error {
	id, err := parseEmployeeID(c)
	if err != nil {
		return fail(c, err)
	}

	var req SetSalaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	if err := Registry.SetSalary(id, req.YearlySalaryUSD); err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Salary updated",
	})
}

func RemoveEmployee(c *fiber.Ctx) error {
	id, err := parseEmployeeID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := Registry.RemoveEmployee(id); err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Employee removed",
	})
}

func GetEmployee(c *fiber.Ctx) error {
	id, err := parseEmployeeID(c)
	if err != nil {
		return fail(c, err)
	}

	employee, err := Registry.GetEmployee(id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    employee,
	})
}

func GetAllEmployees(c *fiber.Ctx) error {
	employees, err := Registry.ListEmployees()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    employees,
	})
}

func GetEmployeeCount(c *fiber.Ctx) error {
	count, err := Registry.EmployeeCount()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"count": count,
		},
	})
}
