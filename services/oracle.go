package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cryptopayroll/models"
	"cryptopayroll/types"
	"cryptopayroll/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueryDispatcher sends an issued query to the external oracle network.
// Dispatch is fire-and-forget: the answer arrives later through the callback
// endpoint, or never.
type QueryDispatcher interface {
	DispatchQuery(ctx context.Context, query *models.OracleQuery) error
}

type HTTPOracleDispatcher struct {
	client   *http.Client
	endpoint string
	cadence  time.Duration
}

func NewHTTPOracleDispatcher(endpoint string, cadence time.Duration) *HTTPOracleDispatcher {
	return &HTTPOracleDispatcher{
		client:   &http.Client{},
		endpoint: endpoint,
		cadence:  cadence,
	}
}

func (d *HTTPOracleDispatcher) DispatchQuery(ctx context.Context, query *models.OracleQuery) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// delay_seconds asks the oracle to answer one cadence period from now,
	// so the query issued inside each fulfilled callback lands on schedule.
	payload := map[string]interface{}{
		"query_id":      query.ID,
		"url":           query.DataSourceURL,
		"json_path":     query.JSONPath,
		"delay_seconds": int64(d.cadence.Seconds()),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/queries", d.endpoint)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle query failed with status: %d", resp.StatusCode)
	}

	return nil
}

// OracleService runs the two-phase price conversation: it issues one pending
// query per oracle-tracked token and accepts authenticated callbacks, writing
// validated prices into the directory. A callback that fails the proof check
// never touches the directory; its query is marked rejected and the sweep
// issues a replacement.
type OracleService struct {
	DB              *gorm.DB
	Dispatcher      QueryDispatcher
	CallbackAddress string
	SharedSecret    string
}

func NewOracleService(db *gorm.DB, dispatcher QueryDispatcher, callbackAddress, sharedSecret string) *OracleService {
	return &OracleService{
		DB:              db,
		Dispatcher:      dispatcher,
		CallbackAddress: callbackAddress,
		SharedSecret:    sharedSecret,
	}
}

// IssueQuery records a pending query for the token and dispatches it to the
// oracle. A dispatch failure leaves the pending row in place; the scheduler
// re-dispatches stale pending queries.
func (o *OracleService) IssueQuery(tokenAddress string) (*models.OracleQuery, error) {
	var query *models.OracleQuery
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		query, err = issueQueryTx(tx, tokenAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.Dispatch(query)
	return query, nil
}

func issueQueryTx(tx *gorm.DB, tokenAddress string) (*models.OracleQuery, error) {
	var token models.Token
	if err := tx.First(&token, "address = ?", tokenAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUnknownToken
		}
		return nil, err
	}

	query := models.OracleQuery{
		ID:            uuid.New().String(),
		TokenAddress:  token.Address,
		DataSourceURL: token.DataSourceURL,
		JSONPath:      token.JSONPath,
		Status:        models.QueryPending,
		IssuedAt:      time.Now(),
	}
	if err := tx.Create(&query).Error; err != nil {
		return nil, err
	}
	return &query, nil
}

// Dispatch sends a committed query to the oracle network. Failure is logged,
// not returned: the pending row survives and the sweep re-dispatches it.
func (o *OracleService) Dispatch(query *models.OracleQuery) {
	if err := o.Dispatcher.DispatchQuery(context.Background(), query); err != nil {
		utils.Logger.Warn("oracle query dispatch failed",
			zap.String("query_id", query.ID),
			zap.String("token", query.TokenAddress),
			zap.Error(err))
	}
}

// Proof computes the expected authenticity proof for a callback: a hex HMAC
// over "queryID|payload" keyed with the shared secret.
func Proof(secret, queryID, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(queryID))
	mac.Write([]byte("|"))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// rejectQuery retires a pending query whose answer failed the proof check.
// The price directory is untouched; with no pending query left for the token
// the next sweep issues a fresh one.
func (o *OracleService) rejectQuery(queryID string) {
	result := o.DB.Model(&models.OracleQuery{}).
		Where("id = ? AND status = ?", queryID, models.QueryPending).
		Update("status", models.QueryRejected)
	if result.Error != nil {
		utils.Logger.Error("failed to mark query rejected",
			zap.String("query_id", queryID),
			zap.Error(result.Error))
		return
	}
	if result.RowsAffected > 0 {
		utils.Logger.Warn("oracle callback failed proof check",
			zap.String("query_id", queryID))
	}
}

// HandleCallback verifies caller identity and the authenticity proof, routes
// the price to the token the query was issued for, and issues the next
// periodic query for that token. Accept happens in one transaction; a failed
// proof rejects the pending query, and everything else mutates nothing.
func (o *OracleService) HandleCallback(caller, queryID, payload, proof string) error {
	if caller != o.CallbackAddress {
		return types.ErrOracleAuthenticityFailed
	}

	expected := Proof(o.SharedSecret, queryID, payload)
	if !hmac.Equal([]byte(expected), []byte(proof)) {
		o.rejectQuery(queryID)
		return types.ErrOracleAuthenticityFailed
	}

	var next *models.OracleQuery
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		var query models.OracleQuery
		if err := tx.First(&query, "id = ? AND status = ?", queryID, models.QueryPending).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnknownQuery
			}
			return err
		}

		price, err := decimal.NewFromString(payload)
		if err != nil || price.IsNegative() || !price.Equal(price.Truncate(0)) {
			return types.ErrInvalidAmount
		}

		now := time.Now()
		query.Status = models.QueryFulfilled
		query.FulfilledAt = now
		if err := tx.Save(&query).Error; err != nil {
			return err
		}

		if err := setPriceTx(tx, query.TokenAddress, price, now); err != nil {
			return err
		}

		next, err = issueQueryTx(tx, query.TokenAddress)
		return err
	})
	if err != nil {
		return err
	}

	utils.Logger.Info("oracle price accepted",
		zap.String("query_id", queryID),
		zap.String("token", next.TokenAddress),
		zap.String("price_usd", payload))

	o.Dispatch(next)
	return nil
}

// ReissueStale dispatches a fresh query for every tracked token whose newest
// pending query is older than maxPendingAge. A lost callback otherwise
// extends staleness silently; this is the cadence tick that bounds it.
func (o *OracleService) ReissueStale(maxPendingAge time.Duration) {
	var tokens []models.Token
	if err := o.DB.Where("data_source_url <> ''").Find(&tokens).Error; err != nil {
		utils.Logger.Error("failed to list oracle-tracked tokens", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-maxPendingAge)
	for _, token := range tokens {
		var recent int64
		err := o.DB.Model(&models.OracleQuery{}).
			Where("token_address = ? AND status = ? AND issued_at > ?", token.Address, models.QueryPending, cutoff).
			Count(&recent).Error
		if err != nil {
			utils.Logger.Error("failed to check pending queries", zap.Error(err))
			continue
		}
		if recent > 0 {
			continue
		}

		if _, err := o.IssueQuery(token.Address); err != nil {
			utils.Logger.Error("failed to reissue query",
				zap.String("token", token.Address),
				zap.Error(err))
		}
	}
}

// PendingOlderThan counts pending queries issued before now-age. Used by the
// health report to surface a silently stalled oracle.
func (o *OracleService) PendingOlderThan(age time.Duration) (int64, error) {
	var count int64
	err := o.DB.Model(&models.OracleQuery{}).
		Where("status = ? AND issued_at < ?", models.QueryPending, time.Now().Add(-age)).
		Count(&count).Error
	return count, err
}
