package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elevex/internal/entities"
)

var ErrAgentNotFound = errors.New("agent not found")

// AgentRepository stores chat personas in Postgres.
type AgentRepository struct {
	pool *pgxpool.Pool
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

// Get loads one agent by ID.
func (r *AgentRepository) Get(ctx context.Context, id string) (entities.Agent, error) {
	var a entities.Agent
	var createdBy *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, system_instruction, brand_name, is_custom, created_by, created_at
		 FROM agents WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Description, &a.SystemInstruction, &a.BrandName, &a.IsCustom, &createdBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Agent{}, ErrAgentNotFound
	}
	if err != nil {
		return entities.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	if createdBy != nil {
		a.CreatedBy = *createdBy
	}
	return a, nil
}

// List returns every agent, builtin ones first.
func (r *AgentRepository) List(ctx context.Context) ([]entities.Agent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, system_instruction, brand_name, is_custom, created_by, created_at
		 FROM agents ORDER BY is_custom, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var out []entities.Agent
	for rows.Next() {
		var a entities.Agent
		var createdBy *string
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.SystemInstruction, &a.BrandName, &a.IsCustom, &createdBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		if createdBy != nil {
			a.CreatedBy = *createdBy
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts an agent.
func (r *AgentRepository) Create(ctx context.Context, a entities.Agent) error {
	var createdBy *string
	if a.CreatedBy != "" {
		createdBy = &a.CreatedBy
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agents (id, name, description, system_instruction, brand_name, is_custom, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Name, a.Description, a.SystemInstruction, a.BrandName, a.IsCustom, createdBy, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// Delete removes a custom agent.
func (r *AgentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1 AND is_custom`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}
