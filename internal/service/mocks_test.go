package service

import (
	"context"
	"errors"
	"net"
	"sort"
	"time"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/session"
)

var errOffline = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

// mockAPI implements every service-facing API interface
type mockAPI struct {
	offline bool

	clients      []domain.Client
	clientCalls  int
	invoices     []domain.Invoice
	createdBody  *domain.InvoiceCreate
	createdKey   string
	createErr    error
	updated      *domain.InvoiceUpdate
	deletedIDs   []int64
	reminderIDs  []int64
	extraction   *domain.ExtractionResponse
	loginErr     error
	meErr        error
	user         *domain.User
	verification *domain.PaymentVerification
	nextID       int64
}

func (m *mockAPI) fail() error {
	if m.offline {
		return errOffline
	}
	return nil
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &domain.AuthToken{AccessToken: "tok-" + email, TokenType: "bearer"}, nil
}
func (m *mockAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	return &domain.User{ID: 1, Email: req.Email, FullName: req.FullName}, nil
}
func (m *mockAPI) Me(ctx context.Context) (*domain.User, error) {
	if m.meErr != nil {
		return nil, m.meErr
	}
	return m.user, nil
}
func (m *mockAPI) VerifyEmail(ctx context.Context, token string) (*domain.EmailVerification, error) {
	return &domain.EmailVerification{Message: "ok"}, nil
}
func (m *mockAPI) ResendVerification(ctx context.Context, email string) (string, error) {
	return "sent", nil
}

func (m *mockAPI) ListClients(ctx context.Context, limit, offset int) ([]domain.Client, error) {
	m.clientCalls++
	if err := m.fail(); err != nil {
		return nil, err
	}
	if offset >= len(m.clients) {
		return nil, nil
	}
	end := min(offset+limit, len(m.clients))
	return m.clients[offset:end], nil
}
func (m *mockAPI) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	for i := range m.clients {
		if m.clients[i].ID == id {
			return &m.clients[i], nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Detail: "Client not found"}
}
func (m *mockAPI) CreateClient(ctx context.Context, in domain.ClientInput) (*domain.Client, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.nextID++
	c := domain.Client{ID: 100 + m.nextID, Name: in.Name, Email: in.Email, Address: in.Address}
	m.clients = append(m.clients, c)
	return &c, nil
}
func (m *mockAPI) UpdateClient(ctx context.Context, id int64, in domain.ClientInput) (*domain.Client, error) {
	return &domain.Client{ID: id, Name: in.Name, Email: in.Email}, nil
}
func (m *mockAPI) DeleteClient(ctx context.Context, id int64) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.fail()
}

func (m *mockAPI) ListInvoices(ctx context.Context, params domain.InvoiceListParams) (*api.InvoicePage, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if params.Cursor != nil && inv.ID <= *params.Cursor {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		out = append(out, inv)
		if params.Limit > 0 && len(out) == params.Limit {
			break
		}
	}
	page := &api.InvoicePage{Invoices: out}
	if len(out) > 0 {
		last := out[len(out)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}
func (m *mockAPI) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			inv := m.invoices[i]
			return &inv, nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Detail: "Invoice not found"}
}
func (m *mockAPI) CreateInvoice(ctx context.Context, in domain.InvoiceCreate, key string) (*domain.Invoice, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdBody = &in
	m.createdKey = key
	return &domain.Invoice{ID: 77, Number: "INV-1", ClientID: in.ClientID, Total: in.Total, Status: domain.InvoiceStatusDraft}, nil
}
func (m *mockAPI) UpdateInvoice(ctx context.Context, id int64, in domain.InvoiceUpdate) (*domain.Invoice, error) {
	m.updated = &in
	inv, err := m.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		inv.Status = *in.Status
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	return inv, nil
}
func (m *mockAPI) DeleteInvoice(ctx context.Context, id int64) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.fail()
}
func (m *mockAPI) GenerateInvoice(ctx context.Context, in domain.GenerateInvoiceRequest) (*domain.Invoice, error) {
	return &domain.Invoice{ID: 90, ClientID: in.ClientID, Currency: in.Currency}, nil
}
func (m *mockAPI) SendReminder(ctx context.Context, id int64) (*domain.ReminderResult, error) {
	m.reminderIDs = append(m.reminderIDs, id)
	return &domain.ReminderResult{Status: "queued", InvoiceID: id}, nil
}

func (m *mockAPI) ExtractJobDetails(ctx context.Context, text string, file *api.Upload) (*domain.ExtractionResponse, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	return m.extraction, nil
}

func (m *mockAPI) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionCheckout, error) {
	return &domain.SubscriptionCheckout{PaymentURL: "https://pay.test/" + req.Currency, Reference: "ref-1"}, nil
}
func (m *mockAPI) VerifyPayment(ctx context.Context, reference string, provider domain.PaymentProvider) (*domain.PaymentVerification, error) {
	return m.verification, nil
}
func (m *mockAPI) SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error) {
	return &domain.SubscriptionStatus{}, nil
}
func (m *mockAPI) PaymentHistory(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	return nil, nil
}

// memClientCache is an in-memory ClientCache and MetaStore
type memClientCache struct {
	clients map[int64]domain.Client
	meta    map[string]time.Time
}

func newMemClientCache() *memClientCache {
	return &memClientCache{clients: map[int64]domain.Client{}, meta: map[string]time.Time{}}
}

func (c *memClientCache) ReplaceAll(ctx context.Context, clients []domain.Client) error {
	c.clients = map[int64]domain.Client{}
	for _, cl := range clients {
		c.clients[cl.ID] = cl
	}
	c.meta[repository.MetaClients] = time.Now()
	return nil
}
func (c *memClientCache) Upsert(ctx context.Context, client *domain.Client) error {
	c.clients[client.ID] = *client
	return nil
}
func (c *memClientCache) Delete(ctx context.Context, id int64) error {
	delete(c.clients, id)
	return nil
}
func (c *memClientCache) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	cl, ok := c.clients[id]
	if !ok {
		return nil, repository.ErrNotCached
	}
	return &cl, nil
}
func (c *memClientCache) List(ctx context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, 0, len(c.clients))
	for _, cl := range c.clients {
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (c *memClientCache) FetchedAt(ctx context.Context, key string) (time.Time, error) {
	at, ok := c.meta[key]
	if !ok {
		return time.Time{}, repository.ErrNotCached
	}
	return at, nil
}
func (c *memClientCache) Touch(ctx context.Context, key string, at time.Time) error {
	c.meta[key] = at
	return nil
}

type memInvoiceCache struct {
	invoices map[int64]domain.Invoice
	replaced int
}

func newMemInvoiceCache() *memInvoiceCache {
	return &memInvoiceCache{invoices: map[int64]domain.Invoice{}}
}

func (c *memInvoiceCache) ReplaceAll(ctx context.Context, invoices []domain.Invoice) error {
	c.replaced++
	c.invoices = map[int64]domain.Invoice{}
	for _, inv := range invoices {
		c.invoices[inv.ID] = inv
	}
	return nil
}
func (c *memInvoiceCache) Upsert(ctx context.Context, inv *domain.Invoice) error {
	c.invoices[inv.ID] = *inv
	return nil
}
func (c *memInvoiceCache) Delete(ctx context.Context, id int64) error {
	delete(c.invoices, id)
	return nil
}
func (c *memInvoiceCache) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, ok := c.invoices[id]
	if !ok {
		return nil, repository.ErrNotCached
	}
	return &inv, nil
}
func (c *memInvoiceCache) List(ctx context.Context, clientID *int64, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range c.invoices {
		if clientID != nil && inv.ClientID != *clientID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// mockSessions records session changes
type mockSessions struct {
	current session.Session
	cleared int
}

func (m *mockSessions) Update(ctx context.Context, token string, user *domain.User) error {
	if user == nil {
		user = m.current.User
	}
	m.current = session.Session{Token: token, User: user}
	return nil
}
func (m *mockSessions) SetUser(ctx context.Context, user *domain.User) error {
	m.current.User = user
	return nil
}
func (m *mockSessions) Clear(ctx context.Context) error {
	m.cleared++
	m.current = session.Session{}
	return nil
}
func (m *mockSessions) Current() session.Session { return m.current }
