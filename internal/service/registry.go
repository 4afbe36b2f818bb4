package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dummyPassword is hashed once and verified against on unknown emails so a
// failed login costs the same whether or not the email exists.
const dummyPassword = "ledger-dummy-credential"

// Registry is the single ledger authority: it owns every client, every account
// and the system-wide transaction index.
//
// Locking: mu is held shared by operations touching existing entities and
// exclusively by structural changes (register, remove, open) and by reads that
// must see a consistent cross-account view (total balance, stats, snapshot).
// Account locks nest inside mu; the index lock nests inside account locks.
type Registry struct {
	mu sync.RWMutex

	name      string
	code      string
	createdAt time.Time

	clients      map[string]*domain.Client
	clientOrder  []string
	accounts     map[string]*domain.Account
	accountOrder []string
	index        *transactionIndex
	retired      map[string]struct{} // removed account ids that still own records in index

	hasher    ports.HashService
	audit     ports.AuditService
	log       zerolog.Logger
	dummyOnce sync.Once
	dummyHash string
}

var _ ports.LedgerService = (*Registry)(nil)

// NewRegistry creates an empty ledger. audit may be nil.
func NewRegistry(name, code string, hasher ports.HashService, audit ports.AuditService, log zerolog.Logger) *Registry {
	return &Registry{
		name:      name,
		code:      code,
		createdAt: time.Now().UTC(),
		clients:   make(map[string]*domain.Client),
		accounts:  make(map[string]*domain.Account),
		index:     &transactionIndex{},
		retired:   make(map[string]struct{}),
		hasher:    hasher,
		audit:     audit,
		log:       log,
	}
}

func (r *Registry) Name() string         { return r.name }
func (r *Registry) Code() string         { return r.code }
func (r *Registry) CreatedAt() time.Time { return r.createdAt }

// ---- Clients ----

// RegisterClient creates a client with a hashed credential.
// Emails are compared case-insensitively.
func (r *Registry) RegisterClient(req ports.RegisterClientRequest) (*domain.Client, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, apperror.Validation("email is required")
	}
	if req.Password == "" {
		return nil, apperror.Validation("password is required")
	}

	if r.FindClientByEmail(email) != nil {
		return nil, apperror.ErrDuplicateEmail()
	}

	// Hash outside the lock, argon2 is deliberately slow.
	hash, err := r.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findClientByEmailLocked(email) != nil {
		return nil, apperror.ErrDuplicateEmail()
	}
	if req.ID != "" {
		if _, exists := r.clients[req.ID]; exists {
			return nil, apperror.Validation(fmt.Sprintf("client id %s already exists", req.ID))
		}
	}

	client := domain.NewClient(req.ID, email, strings.TrimSpace(req.Name), hash)
	r.clients[client.ID()] = client
	r.clientOrder = append(r.clientOrder, client.ID())

	r.log.Info().
		Str("client_id", client.ID()).
		Str("email", email).
		Msg("client registered")

	return client, nil
}

// RemoveClient deletes a client that owns no ACTIVE account, together with its
// remaining accounts. Their records stay in the transaction index, and ids that
// own records can never be opened again. The balances of removed BLOCKED accounts leave the
// ledger: they no longer count towards TotalBalance or Stats.
func (r *Registry) RemoveClient(clientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[clientID]
	if !ok {
		return false, apperror.ErrClientNotFound(clientID)
	}
	if client.HasActiveAccounts() {
		return false, apperror.ErrClientHasActiveAccounts()
	}

	for _, acc := range client.Accounts() {
		delete(r.accounts, acc.ID())
		r.accountOrder = removeID(r.accountOrder, acc.ID())
		if acc.TransactionCount() > 0 {
			r.retired[acc.ID()] = struct{}{}
		}
	}
	delete(r.clients, clientID)
	r.clientOrder = removeID(r.clientOrder, clientID)

	r.log.Info().Str("client_id", clientID).Msg("client removed")
	return true, nil
}

// Authenticate returns the client whose email and password match, or nil.
// Unknown email and wrong password are indistinguishable to the caller;
// the reason is only kept in the audit trail.
func (r *Registry) Authenticate(email, password string) *domain.Client {
	email = normalizeEmail(email)
	client := r.FindClientByEmail(email)

	if client == nil {
		// Burn the same verification cost as a real mismatch.
		_, _ = r.hasher.Verify(password, r.dummyCredential())
		r.auditLoginFailure(email, "unknown_email")
		return nil
	}
	if !client.VerifyCredential(r.hasher, password) {
		r.auditLoginFailure(email, "wrong_password")
		return nil
	}
	return client
}

// ChangeCredential replaces a client's credential after checking the current one.
func (r *Registry) ChangeCredential(clientID, current, next string) error {
	if next == "" {
		return apperror.Validation("new password is required")
	}

	client := r.FindClient(clientID)
	if client == nil {
		return apperror.ErrClientNotFound(clientID)
	}
	if err := client.ChangeCredential(r.hasher, current, next); err != nil {
		return err
	}

	r.log.Info().Str("client_id", clientID).Msg("credential changed")
	return nil
}

func (r *Registry) FindClient(clientID string) *domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[clientID]
}

func (r *Registry) FindClientByEmail(email string) *domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findClientByEmailLocked(normalizeEmail(email))
}

func (r *Registry) findClientByEmailLocked(email string) *domain.Client {
	for _, id := range r.clientOrder {
		if c := r.clients[id]; c.Email() == email {
			return c
		}
	}
	return nil
}

// Clients returns all clients in registration order.
func (r *Registry) Clients() []*domain.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Client, 0, len(r.clientOrder))
	for _, id := range r.clientOrder {
		out = append(out, r.clients[id])
	}
	return out
}

func (r *Registry) dummyCredential() string {
	r.dummyOnce.Do(func() {
		hash, err := r.hasher.Hash(dummyPassword)
		if err != nil {
			r.log.Warn().Err(err).Msg("failed to prepare dummy credential")
			return
		}
		r.dummyHash = hash
	})
	return r.dummyHash
}

func (r *Registry) auditLoginFailure(email, reason string) {
	r.log.Warn().Str("email", email).Str("reason", reason).Msg("authentication failed")
	if r.audit == nil {
		return
	}
	r.audit.Log(context.Background(), &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionLoginFailed,
		ResourceType: "client",
		ResourceID:   email,
		Details:      fmt.Sprintf(`{"reason":%q}`, reason),
		CreatedAt:    time.Now().UTC(),
	})
}

// ---- Transaction index ----

// transactionIndex is the append-only, system-wide record log. Accounts feed it
// through their journal inside their own critical section, so its order is the
// order in which mutations were accepted.
type transactionIndex struct {
	mu      sync.Mutex
	records []domain.TransactionRecord
}

func (ix *transactionIndex) Record(recs ...domain.TransactionRecord) {
	ix.mu.Lock()
	ix.records = append(ix.records, recs...)
	ix.mu.Unlock()
}

func (ix *transactionIndex) all() []domain.TransactionRecord {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]domain.TransactionRecord, len(ix.records))
	copy(out, ix.records)
	return out
}

func (ix *transactionIndex) count() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.records)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
