package services

import (
	"errors"
	"time"

	"cryptopayroll/models"
	"cryptopayroll/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceFeed is the token price directory: per token its symbol, last known
// USD price and the timestamp of that price.
type PriceFeed struct {
	DB *gorm.DB
}

func NewPriceFeed(db *gorm.DB) *PriceFeed {
	return &PriceFeed{DB: db}
}

// RegisterToken adds a token to the directory with no price yet. Symbols are
// stable, case-sensitive and immutable once assigned. An oracle-tracked token
// gets its first pending query in the same transaction; the caller dispatches
// the returned query after commit.
func (f *PriceFeed) RegisterToken(address, symbol string, native bool, dataSourceURL, jsonPath string) (*models.OracleQuery, error) {
	if address == "" {
		return nil, types.ErrInvalidAccount
	}
	if symbol == "" {
		return nil, types.ErrInvalidSymbol
	}

	var query *models.OracleQuery
	err := f.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Token{}).
			Where("address = ? OR symbol = ?", address, symbol).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrInvalidAccount
		}

		token := models.Token{
			Address:       address,
			Symbol:        symbol,
			Native:        native,
			DataSourceURL: dataSourceURL,
			JSONPath:      jsonPath,
			PriceUSD:      decimal.Zero,
		}
		if err := tx.Create(&token).Error; err != nil {
			return err
		}

		if dataSourceURL != "" {
			var err error
			query, err = issueQueryTx(tx, address)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return query, nil
}

// setPriceTx overwrites price and timestamp unconditionally; the oracle
// protocol does not order late answers. Only the oracle service calls this.
func setPriceTx(tx *gorm.DB, address string, price decimal.Decimal, at time.Time) error {
	result := tx.Model(&models.Token{}).Where("address = ?", address).
		Updates(map[string]interface{}{
			"price_usd":        price,
			"price_updated_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrUnknownToken
	}
	return nil
}

// payablePrice returns the token's price if it can back a payout: non-zero
// and accepted within maxAge of now.
func payablePrice(token *models.Token, now time.Time, maxAge time.Duration) (decimal.Decimal, error) {
	if token.PriceUSD.IsZero() {
		return decimal.Zero, types.ErrZeroPrice
	}
	if token.PriceUpdatedAt.IsZero() || now.Sub(token.PriceUpdatedAt) > maxAge {
		return decimal.Zero, types.ErrStalePrice
	}
	return token.PriceUSD, nil
}

func (f *PriceFeed) GetToken(address string) (*models.Token, error) {
	var token models.Token
	if err := f.DB.First(&token, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUnknownToken
		}
		return nil, err
	}
	return &token, nil
}

func (f *PriceFeed) PriceOf(address string) (decimal.Decimal, error) {
	token, err := f.GetToken(address)
	if err != nil {
		return decimal.Zero, err
	}
	return token.PriceUSD, nil
}

// IsFresh reports whether the token's price was accepted within maxAge.
// A token that was never priced is never fresh.
func (f *PriceFeed) IsFresh(address string, maxAge time.Duration) (bool, error) {
	token, err := f.GetToken(address)
	if err != nil {
		return false, err
	}
	if token.PriceUpdatedAt.IsZero() {
		return false, nil
	}
	return time.Since(token.PriceUpdatedAt) <= maxAge, nil
}

func (f *PriceFeed) ListTokens() ([]models.Token, error) {
	var tokens []models.Token
	err := f.DB.Order("symbol").Find(&tokens).Error
	return tokens, err
}
