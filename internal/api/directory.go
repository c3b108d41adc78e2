package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meetnote/client/internal/types"
)

// Employees

// ListEmployees retrieves all employees.
func ListEmployees(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.Employee, error) {
	return send[[]types.Employee](ctx, httpClient, "get employees", http.MethodGet, baseURL+"/employees", nil)
}

// CreateEmployee registers a new employee.
func CreateEmployee(ctx context.Context, httpClient *http.Client, baseURL string, req types.EmployeeRequest) (*types.Employee, error) {
	return send[*types.Employee](ctx, httpClient, "create employee", http.MethodPost, baseURL+"/employees", req)
}

// GetEmployee retrieves a specific employee.
func GetEmployee(ctx context.Context, httpClient *http.Client, baseURL, employeeID string) (*types.Employee, error) {
	if err := types.ValidateIDPresent(employeeID, "employeeId"); err != nil {
		return nil, err
	}
	return send[*types.Employee](ctx, httpClient, "get employee", http.MethodGet, resourceURL(baseURL, "/employees", employeeID), nil)
}

// UpdateEmployee replaces an employee record.
func UpdateEmployee(ctx context.Context, httpClient *http.Client, baseURL, employeeID string, req types.EmployeeRequest) (*types.Employee, error) {
	if err := types.ValidateIDPresent(employeeID, "employeeId"); err != nil {
		return nil, err
	}
	return send[*types.Employee](ctx, httpClient, "update employee", http.MethodPut, resourceURL(baseURL, "/employees", employeeID), req)
}

// DeleteEmployee deactivates an employee.
func DeleteEmployee(ctx context.Context, httpClient *http.Client, baseURL, employeeID string) error {
	if err := types.ValidateIDPresent(employeeID, "employeeId"); err != nil {
		return err
	}
	_, err := send[json.RawMessage](ctx, httpClient, "delete employee", http.MethodDelete, resourceURL(baseURL, "/employees", employeeID), nil)
	return err
}

// Action items

// ListActionItems retrieves all action items.
func ListActionItems(ctx context.Context, httpClient *http.Client, baseURL string) ([]types.ActionItemRecord, error) {
	return send[[]types.ActionItemRecord](ctx, httpClient, "get action items", http.MethodGet, baseURL+"/action-items", nil)
}

// CreateActionItem creates an action item.
func CreateActionItem(ctx context.Context, httpClient *http.Client, baseURL string, req types.ActionItemRequest) (*types.ActionItemRecord, error) {
	return send[*types.ActionItemRecord](ctx, httpClient, "create action item", http.MethodPost, baseURL+"/action-items", req)
}

// UpdateActionItem replaces an action item.
func UpdateActionItem(ctx context.Context, httpClient *http.Client, baseURL, itemID string, req types.ActionItemRequest) (*types.ActionItemRecord, error) {
	if err := types.ValidateIDPresent(itemID, "actionItemId"); err != nil {
		return nil, err
	}
	return send[*types.ActionItemRecord](ctx, httpClient, "update action item", http.MethodPut, resourceURL(baseURL, "/action-items", itemID), req)
}

// DeleteActionItem deletes an action item.
func DeleteActionItem(ctx context.Context, httpClient *http.Client, baseURL, itemID string) error {
	if err := types.ValidateIDPresent(itemID, "actionItemId"); err != nil {
		return err
	}
	_, err := send[json.RawMessage](ctx, httpClient, "delete action item", http.MethodDelete, resourceURL(baseURL, "/action-items", itemID), nil)
	return err
}
