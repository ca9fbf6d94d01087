package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"go.uber.org/zap"
)

var ErrClientIncomplete = errors.New("client name and email are required")

// ClientList is a client listing. Stale is set when the API was unreachable
// and the cached copy was returned instead.
type ClientList struct {
	Clients   []domain.Client
	Stale     bool
	FetchedAt time.Time
}

// ClientService manages clients through the API with a local cache
type ClientService interface {
	// List serves the cache while it is younger than the TTL unless refresh is set
	List(ctx context.Context, refresh bool) (*ClientList, error)

	Get(ctx context.Context, id int64) (*domain.Client, error)
	Create(ctx context.Context, in domain.ClientInput) (*domain.Client, error)
	Update(ctx context.Context, id int64, in domain.ClientInput) (*domain.Client, error)
	Delete(ctx context.Context, id int64) error

	// FindOrCreate returns the client matching email (or name) or creates it
	FindOrCreate(ctx context.Context, c domain.ExtractedClient) (*domain.Client, bool, error)
}

type clientService struct {
	api    ClientAPI
	cache  repository.ClientCache
	meta   repository.MetaStore
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewClientService(
	clientAPI ClientAPI,
	cache repository.ClientCache,
	meta repository.MetaStore,
	ttl time.Duration,
	logger *zap.Logger,
) ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &clientService{
		api:    clientAPI,
		cache:  cache,
		meta:   meta,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (s *clientService) List(ctx context.Context, refresh bool) (*ClientList, error) {
	if !refresh && s.ttl > 0 {
		if at, err := s.meta.FetchedAt(ctx, repository.MetaClients); err == nil && s.now().Sub(at) < s.ttl {
			clients, err := s.cache.List(ctx)
			if err == nil {
				return &ClientList{Clients: clients, FetchedAt: at}, nil
			}
			s.logger.Warn("client cache unreadable", zap.Error(err))
		}
	}

	clients, err := s.fetchAll(ctx)
	if err != nil {
		if isOffline(err) {
			return s.stale(ctx, err)
		}
		return nil, err
	}

	if err := s.cache.ReplaceAll(ctx, clients); err != nil {
		s.logger.Warn("failed to cache clients", zap.Error(err))
	}
	return &ClientList{Clients: clients, FetchedAt: s.now()}, nil
}

func (s *clientService) fetchAll(ctx context.Context) ([]domain.Client, error) {
	var all []domain.Client
	for offset := 0; ; offset += api.MaxPageSize {
		page, err := s.api.ListClients(ctx, api.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < api.MaxPageSize {
			return all, nil
		}
	}
}

func (s *clientService) stale(ctx context.Context, cause error) (*ClientList, error) {
	clients, err := s.cache.List(ctx)
	if err != nil || len(clients) == 0 {
		return nil, cause
	}
	at, _ := s.meta.FetchedAt(ctx, repository.MetaClients)
	s.logger.Warn("serving cached clients", zap.Error(cause))
	return &ClientList{Clients: clients, Stale: true, FetchedAt: at}, nil
}

func (s *clientService) Get(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.api.GetClient(ctx, id)
	if err != nil {
		if isOffline(err) {
			if cached, cerr := s.cache.GetByID(ctx, id); cerr == nil {
				return cached, nil
			}
		}
		return nil, err
	}
	_ = s.cache.Upsert(ctx, client)
	return client, nil
}

func (s *clientService) Create(ctx context.Context, in domain.ClientInput) (*domain.Client, error) {
	in = domain.NewClientInput(in.Name, in.Email, in.Phone, in.Address)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	client, err := s.api.CreateClient(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := s.cache.Upsert(ctx, client); err != nil {
		s.logger.Warn("failed to cache client", zap.Error(err))
	}
	s.logger.Info("client created", zap.Int64("client_id", client.ID))
	return client, nil
}

func (s *clientService) Update(ctx context.Context, id int64, in domain.ClientInput) (*domain.Client, error) {
	in = domain.NewClientInput(in.Name, in.Email, in.Phone, in.Address)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	client, err := s.api.UpdateClient(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	_ = s.cache.Upsert(ctx, client)
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return s.cache.Delete(ctx, id)
}

func (s *clientService) FindOrCreate(ctx context.Context, c domain.ExtractedClient) (*domain.Client, bool, error) {
	if c.Name == "" || c.Email == "" {
		return nil, false, ErrClientIncomplete
	}

	list, err := s.List(ctx, false)
	if err != nil {
		return nil, false, err
	}
	for i := range list.Clients {
		if list.Clients[i].Matches(c.Name, c.Email) {
			return &list.Clients[i], false, nil
		}
	}

	client, err := s.Create(ctx, domain.ClientInput{Name: c.Name, Email: c.Email, Address: c.Address})
	if err != nil {
		return nil, false, err
	}
	return client, true, nil
}
