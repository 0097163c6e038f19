package api

// CreateAssociationRequest binds a model to a provider-side name.
type CreateAssociationRequest struct {
	ModelID           string `json:"model_id" binding:"required"`
	ProviderID        string `json:"provider_id" binding:"required"`
	ProviderModelName string `json:"provider_model_name" binding:"required"`
	SupportsStream    bool   `json:"supports_stream"`
	SupportsTools     bool   `json:"supports_tools"`
	SupportsVision    bool   `json:"supports_vision"`
	Weight            int    `json:"weight" binding:"omitempty,gt=0"`
	Priority          int    `json:"priority" binding:"omitempty,gte=0"`
	Enabled           bool   `json:"enabled"`
}

type BatchDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type AddAliasRequest struct {
	Alias string `json:"alias" binding:"required"`
}

type AddCatalogEntryRequest struct {
	ModelName string `json:"model_name" binding:"required"`
}

// VerifyModelTarget is a not-yet-associated provider/model pair to test.
type VerifyModelTarget struct {
	ProviderID string `json:"provider_id" binding:"required"`
	ModelName  string `json:"model_name" binding:"required"`
}

// StartVerifyRequest starts a verification run over associations and/or
// unassociated pairs.
type StartVerifyRequest struct {
	AssociationIDs []string            `json:"association_ids"`
	Models         []VerifyModelTarget `json:"models"`
	Concurrency    int                 `json:"concurrency" binding:"omitempty,gt=0"`
}
