package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/prism-console/internal/store"
	"github.com/nulzo/prism-console/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// Create a repository instance that uses the transaction
	txRepo := &SqliteRepository{
		db:       r.db, // Keep the original DB handle
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Providers() store.ProviderRepository {
	return &providerRepo{db: r.executor}
}

func (r *SqliteRepository) Models() store.ModelRepository {
	return &modelRepo{db: r.executor}
}

func (r *SqliteRepository) Associations() store.AssociationRepository {
	return &associationRepo{db: r.executor}
}

func (r *SqliteRepository) Aliases() store.AliasRepository {
	return &aliasRepo{db: r.executor}
}

func (r *SqliteRepository) APIKeys() store.APIKeyRepository {
	return &apiKeyRepo{db: r.executor}
}

func (r *SqliteRepository) Audit() store.AuditRepository {
	return &auditRepo{db: r.executor}
}

type providerRepo struct {
	db DB
}

func (r *providerRepo) List(ctx context.Context) ([]model.Provider, error) {
	var providers []model.Provider
	if err := r.db.SelectContext(ctx, &providers, `SELECT * FROM providers ORDER BY created_at, id`); err != nil {
		return nil, err
	}

	var entries []model.CatalogEntry
	if err := r.db.SelectContext(ctx, &entries, `SELECT * FROM catalog_entries ORDER BY provider_id, position`); err != nil {
		return nil, err
	}

	byProvider := make(map[string][]model.CatalogEntry)
	for _, e := range entries {
		byProvider[e.ProviderID] = append(byProvider[e.ProviderID], e)
	}
	for i := range providers {
		providers[i].Catalog = byProvider[providers[i].ID]
	}

	return providers, nil
}

func (r *providerRepo) Get(ctx context.Context, id string) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM providers WHERE id = ?`, id); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &p.Catalog, `SELECT * FROM catalog_entries WHERE provider_id = ? ORDER BY position`, id); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *providerRepo) ReplaceUpstreamCatalog(ctx context.Context, providerID string, names []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE provider_id = ? AND source = ?`,
		providerID, model.SourceUpstream); err != nil {
		return err
	}

	query := `
	INSERT INTO catalog_entries (provider_id, model_name, source, position, created_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`

	for i, name := range names {
		if _, err := r.db.ExecContext(ctx, query, providerID, name, model.SourceUpstream, i); err != nil {
			return err
		}
	}

	return nil
}

func (r *providerRepo) AddCustomCatalogEntry(ctx context.Context, providerID, modelName string) error {
	// Custom entries go after everything currently stored.
	query := `
	INSERT INTO catalog_entries (provider_id, model_name, source, position, created_at)
	VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM catalog_entries WHERE provider_id = ?), CURRENT_TIMESTAMP)`
	_, err := r.db.ExecContext(ctx, query, providerID, modelName, model.SourceCustom, providerID)
	return err
}

func (r *providerRepo) RemoveCustomCatalogEntry(ctx context.Context, providerID, modelName string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE provider_id = ? AND model_name = ? AND source = ?`,
		providerID, modelName, model.SourceCustom)
	return err
}

type modelRepo struct {
	db DB
}

func (r *modelRepo) List(ctx context.Context) ([]model.Model, error) {
	var models []model.Model
	err := r.db.SelectContext(ctx, &models, `SELECT * FROM models ORDER BY created_at, id`)
	return models, err
}

func (r *modelRepo) Get(ctx context.Context, id string) (*model.Model, error) {
	var m model.Model
	err := r.db.GetContext(ctx, &m, `SELECT * FROM models WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type associationRepo struct {
	db DB
}

func (r *associationRepo) List(ctx context.Context, modelID string) ([]model.Association, error) {
	var assocs []model.Association
	if modelID != "" {
		err := r.db.SelectContext(ctx, &assocs,
			`SELECT * FROM associations WHERE model_id = ? ORDER BY priority, created_at`, modelID)
		return assocs, err
	}
	err := r.db.SelectContext(ctx, &assocs, `SELECT * FROM associations ORDER BY priority, created_at`)
	return assocs, err
}

func (r *associationRepo) Get(ctx context.Context, id string) (*model.Association, error) {
	var a model.Association
	if err := r.db.GetContext(ctx, &a, `SELECT * FROM associations WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *associationRepo) Create(ctx context.Context, a *model.Association) error {
	query := `
	INSERT INTO associations (
		id, model_id, provider_id, provider_model_name,
		supports_stream, supports_tools, supports_vision,
		weight, priority, enabled, created_at, updated_at
	) VALUES (
		:id, :model_id, :provider_id, :provider_model_name,
		:supports_stream, :supports_tools, :supports_vision,
		:weight, :priority, :enabled, :created_at, :updated_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, a)
	return err
}

func (r *associationRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM associations WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *associationRepo) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM associations WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *associationRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE associations SET enabled = ?, updated_at = ? WHERE id = ?`,
		enabled, time.Now(), id)
	return err
}

type aliasRepo struct {
	db DB
}

func (r *aliasRepo) ListByModel(ctx context.Context, modelID string) ([]model.ModelAlias, error) {
	var aliases []model.ModelAlias
	err := r.db.SelectContext(ctx, &aliases,
		`SELECT * FROM model_aliases WHERE model_id = ? ORDER BY created_at`, modelID)
	return aliases, err
}

func (r *aliasRepo) Create(ctx context.Context, alias *model.ModelAlias) error {
	query := `
	INSERT INTO model_aliases (id, model_id, alias, created_at)
	VALUES (:id, :model_id, :alias, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, alias)
	return err
}

func (r *aliasRepo) Delete(ctx context.Context, modelID, alias string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM model_aliases WHERE model_id = ? AND alias = ?`, modelID, alias)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type apiKeyRepo struct {
	db DB
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	// active check is part of the query for speed
	query := `SELECT * FROM api_keys WHERE key_hash = ? AND is_active = 1`
	err := r.db.GetContext(ctx, &key, query, hash)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	query := `
	INSERT INTO api_keys (id, name, key_hash, key_prefix, is_active, created_at, updated_at)
	VALUES (:id, :name, :key_hash, :key_prefix, :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, key)
	return err
}

func (r *apiKeyRepo) UpdateUsage(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

type auditRepo struct {
	db DB
}

func (r *auditRepo) Log(ctx context.Context, event *model.AuditEvent) error {
	query := `
	INSERT INTO audit_events (id, actor, target_resource, action, details_json, created_at)
	VALUES (:id, :actor, :target_resource, :action, :details_json, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, event)
	return err
}

func (r *auditRepo) GetRecent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT * FROM audit_events ORDER BY created_at DESC LIMIT ?`, limit)
	return events, err
}
