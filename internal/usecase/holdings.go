package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

// FallbackPassword opens holdings saved without an explicit credential.
const FallbackPassword = "fallback"

var ErrAssetNotFound = errors.New("asset not found in catalog")

// HoldingsService owns the encrypted holdings blob. Decryption failures never
// reach the caller as errors: a wrong or missing credential degrades to the
// fallback credential once, then to an empty list.
type HoldingsService struct {
	store  domain.KVStore
	cipher domain.Cipher
	logger *zap.Logger
}

func NewHoldingsService(store domain.KVStore, cipher domain.Cipher, logger *zap.Logger) *HoldingsService {
	return &HoldingsService{store: store, cipher: cipher, logger: logger}
}

// Load returns the stored holdings. password may be empty, meaning the
// fallback credential.
func (s *HoldingsService) Load(ctx context.Context, password string) []domain.Holding {
	blob, ok, err := s.store.Get(ctx, keyHoldings)
	if err != nil || !ok {
		return nil
	}

	actual := password
	if actual == "" {
		actual = FallbackPassword
	}

	plaintext, err := s.cipher.Decrypt(blob, actual)
	if err != nil && actual != FallbackPassword {
		plaintext, err = s.cipher.Decrypt(blob, FallbackPassword)
	}
	if err != nil {
		s.logger.Warn("could not decrypt holdings, starting empty", zap.Error(err))
		return nil
	}

	var holdings []domain.Holding
	if err := json.Unmarshal(plaintext, &holdings); err != nil {
		s.logger.Warn("holdings blob is unreadable, starting empty", zap.Error(err))
		return nil
	}
	return holdings
}

// Save encrypts and persists the full holdings list.
func (s *HoldingsService) Save(ctx context.Context, holdings []domain.Holding, password string) error {
	if password == "" {
		password = FallbackPassword
	}
	plaintext, err := json.Marshal(holdings)
	if err != nil {
		return err
	}
	blob, err := s.cipher.Encrypt(plaintext, password)
	if err != nil {
		return errors.Wrap(err, "encrypt holdings")
	}
	return s.store.Set(ctx, keyHoldings, blob)
}

// Upsert adds or edits a position. Identity is the canonical id; an existing
// position is updated in place so the list never holds two entries for the
// same asset. When the id is unknown the symbol is resolved against the
// catalog first.
func (s *HoldingsService) Upsert(ctx context.Context, password, coinGeckoID, symbol, name string, quantity decimal.Decimal, catalog []domain.Token) ([]domain.Holding, error) {
	if coinGeckoID == "" {
		token, ok := findToken(catalog, symbol)
		if !ok {
			return nil, ErrAssetNotFound
		}
		coinGeckoID = token.ID
	}

	h, err := domain.NewHolding(coinGeckoID, symbol, name, quantity)
	if err != nil {
		return nil, err
	}

	holdings := s.Load(ctx, password)
	holdings = domain.Upsert(holdings, h)
	if err := s.Save(ctx, holdings, password); err != nil {
		return nil, err
	}
	return holdings, nil
}

// Delete removes the position with the given id.
func (s *HoldingsService) Delete(ctx context.Context, password, coinGeckoID string) ([]domain.Holding, error) {
	holdings := s.Load(ctx, password)
	holdings = domain.Remove(holdings, coinGeckoID)
	if err := s.Save(ctx, holdings, password); err != nil {
		return nil, err
	}
	return holdings, nil
}

func findToken(catalog []domain.Token, symbol string) (domain.Token, bool) {
	for _, t := range catalog {
		if strings.EqualFold(t.Symbol, symbol) || t.ID == strings.ToLower(symbol) {
			return t, true
		}
	}
	return domain.Token{}, false
}
