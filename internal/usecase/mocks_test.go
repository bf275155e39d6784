package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/vitos/coinfolio/internal/domain"
)

var errWrongPassword = errors.New("wrong password")

// memStore is the in-memory kv fake used across the usecase tests.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// plainCipher stores the payload as-is; vault behavior has its own tests.
type plainCipher struct{}

func (plainCipher) Encrypt(plaintext []byte, password string) (string, error) {
	return password + "|" + string(plaintext), nil
}

func (plainCipher) Decrypt(blob string, password string) ([]byte, error) {
	prefix := password + "|"
	if len(blob) < len(prefix) || blob[:len(prefix)] != prefix {
		return nil, errWrongPassword
	}
	return []byte(blob[len(prefix):]), nil
}

// pagedMarket serves scripted pages and error sequences.
type pagedMarket struct {
	mu      sync.Mutex
	tokens  []domain.Token
	listErr error
	pages   map[int][]domain.RankedAsset
	errs    map[int][]error
	quotes  []domain.MarketQuote

	listCalls    int
	pageCalls    map[int]int
	marketsCalls int
	lastIDs      []string

	// marketsGate, when set, blocks MarketsByIDs until closed.
	marketsGate chan struct{}
}

func newPagedMarket() *pagedMarket {
	return &pagedMarket{
		pages:     make(map[int][]domain.RankedAsset),
		errs:      make(map[int][]error),
		pageCalls: make(map[int]int),
	}
}

func (m *pagedMarket) ListTokens(ctx context.Context) ([]domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	return m.tokens, m.listErr
}

func (m *pagedMarket) MarketPage(ctx context.Context, page, perPage int) ([]domain.RankedAsset, error) {
	m.mu.Lock()
	m.pageCalls[page]++
	if errs := m.errs[page]; len(errs) > 0 {
		err := errs[0]
		m.errs[page] = errs[1:]
		m.mu.Unlock()
		return nil, err
	}
	assets := m.pages[page]
	m.mu.Unlock()
	return assets, nil
}

func (m *pagedMarket) MarketsByIDs(ctx context.Context, ids []string, vsCurrency string) ([]domain.MarketQuote, error) {
	m.mu.Lock()
	m.marketsCalls++
	m.lastIDs = ids
	gate := m.marketsGate
	quotes := m.quotes
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return quotes, nil
}

func (m *pagedMarket) marketsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marketsCalls
}
