package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentops/hrsync/internal/batch/domain"
)

// Resolver maps operator-facing business identifiers to the HR platform's
// internal record ids. It is built fresh each tick from the current people
// snapshot and falls back to a remote search on a local miss, because the
// snapshot is often stale for recently created or terminated employees.
type Resolver struct {
	api    EmployeeAPI
	byKey  map[string]string
	logger *slog.Logger
}

// NewResolver builds the identifier map from a bulk people snapshot. Both
// the employee id and the (case-folded) email are indexed, since operators
// paste either.
func NewResolver(ctx context.Context, api EmployeeAPI, logger *slog.Logger) (*Resolver, error) {
	employees, err := api.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build identifier map: %w", err)
	}

	byKey := make(map[string]string, 2*len(employees))
	for _, e := range employees {
		if e.EmployeeID != "" {
			byKey[e.EmployeeID] = e.ID
		}
		if e.Email != "" {
			byKey[strings.ToLower(e.Email)] = e.ID
		}
	}

	logger.Debug("Identifier map built",
		slog.Int("employees", len(employees)),
		slog.Int("keys", len(byKey)),
	)

	return &Resolver{api: api, byKey: byKey, logger: logger}, nil
}

// Resolve returns the internal record id for a business identifier, or
// domain.ErrEmployeeNotFound when neither the local map nor a remote search
// knows it. The fallback result is not written back into the map.
func (r *Resolver) Resolve(ctx context.Context, businessID string) (string, error) {
	if id, ok := r.byKey[businessID]; ok {
		return id, nil
	}
	if id, ok := r.byKey[strings.ToLower(businessID)]; ok {
		return id, nil
	}

	r.logger.Debug("Identifier not in snapshot, searching remotely",
		slog.String("business_id", businessID),
	)

	employee, err := r.api.SearchEmployee(ctx, businessID)
	if err != nil {
		return "", fmt.Errorf("remote identifier search failed: %w", err)
	}
	if employee == nil {
		return "", domain.ErrEmployeeNotFound
	}
	return employee.ID, nil
}
