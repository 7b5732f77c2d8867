// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/zacre/core/registry"
	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/domain/layout"
	"github.com/artpar/zacre/domain/parameter"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

// ParameterService reads site configuration through a cache and resolves
// module instance parameters.
type ParameterService struct {
	store  ports.ParameterStore
	cache  ports.ConfigCache
	logger zerolog.Logger
}

// NewParameterService creates a parameter service.
func NewParameterService(store ports.ParameterStore, cache ports.ConfigCache, logger zerolog.Logger) *ParameterService {
	return &ParameterService{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("service", "parameters").Logger(),
	}
}

// GetConfig returns a site config value. Cache failures degrade to store
// reads. An undeclared key is NotFound.
func (s *ParameterService) GetConfig(ctx context.Context, key string) (string, error) {
	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("config cache read failed")
	} else if ok {
		return v, nil
	}

	c, err := s.store.GetConfig(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return "", apperr.NotFound(fmt.Sprintf("Config %s not found", key))
	}
	if err != nil {
		return "", fmt.Errorf("get config %s: %w", key, err)
	}

	if err := s.cache.Set(ctx, key, c.Value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("config cache write failed")
	}
	return c.Value, nil
}

// GetConfigs reads several keys. Missing keys map to "".
func (s *ParameterService) GetConfigs(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, err := s.GetConfig(ctx, key)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// SetConfig writes the value only if the key is absent, then invalidates
// the cached entry. Reports whether the value was written.
func (s *ParameterService) SetConfig(ctx context.Context, key, value string) (bool, error) {
	created, err := s.store.CreateConfig(ctx, key, value)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, key)
	return created, nil
}

// UpdateConfig overwrites a value and invalidates the cached entry.
func (s *ParameterService) UpdateConfig(ctx context.Context, key, value string) error {
	if err := s.store.PutConfig(ctx, key, value); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

// ListConfig returns every stored config value.
func (s *ParameterService) ListConfig(ctx context.Context) ([]parameter.ConfigParameter, error) {
	return s.store.ListConfig(ctx)
}

// Delete drops one cached entry.
func (s *ParameterService) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}

// Clear drops every cached entry.
func (s *ParameterService) Clear(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

func (s *ParameterService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("config cache invalidation failed")
	}
}

// ResolveInstanceParameters folds the stored rows of an instance into
// prefix-free sanitized values.
func (s *ParameterService) ResolveInstanceParameters(in layout.Instance) parameter.Values {
	return parameter.Resolve(in.ShortName, in.Rows())
}

// DeclareParameterTypes registers each module's parameter types. Existing
// declarations are kept.
func (s *ParameterService) DeclareParameterTypes(ctx context.Context, modules []registry.Descriptor) error {
	for _, d := range modules {
		for _, t := range d.ParameterTypes() {
			if err := s.store.DeclareType(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListParameterTypes returns every declared parameter type.
func (s *ParameterService) ListParameterTypes(ctx context.Context) ([]parameter.Type, error) {
	return s.store.ListTypes(ctx)
}
