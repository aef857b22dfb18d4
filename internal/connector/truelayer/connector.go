package truelayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"finance-sync-go/internal/connector"
	"finance-sync-go/internal/models"
)

const (
	providerName  = "truelayer"
	defaultAPIURL = "https://api.truelayer.com"
)

// Compile-time check: *Connector must satisfy the capability interface.
var _ connector.Connector = (*Connector)(nil)

// Connector fetches accounts and transactions from the TrueLayer data API
// with bearer-token authentication.
type Connector struct {
	credentials models.Credentials
	apiURL      string
	auth        *Auth
	httpClient  *http.Client
}

// NewFactory returns a registry factory bound to the given OAuth client
// settings.
func NewFactory(cfg models.TrueLayerConfig) connector.Factory {
	return func(credentials models.Credentials) (connector.Connector, error) {
		return New(cfg, credentials)
	}
}

func New(cfg models.TrueLayerConfig, credentials models.Credentials) (*Connector, error) {
	httpClient, err := createHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create http client: %w", err)
	}

	return &Connector{
		credentials: credentials,
		apiURL:      defaultAPIURL,
		auth:        NewAuth(cfg, httpClient),
		httpClient:  httpClient,
	}, nil
}

func createHTTPClient() (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (c *Connector) Provider() string {
	return providerName
}

// IsAuthenticated reports whether the stored access token is present, not
// expired, and accepted by a lightweight probe call.
func (c *Connector) IsAuthenticated(ctx context.Context) bool {
	if c.credentials.AccessToken == "" {
		return false
	}
	if c.credentials.Expired(time.Now()) {
		return false
	}

	if err := c.get(ctx, "/v3/cards", nil, &struct{}{}); err != nil {
		return false
	}
	return true
}

// RefreshAuth exchanges the refresh token for new tokens and keeps using
// them for subsequent calls.
func (c *Connector) RefreshAuth(ctx context.Context) (models.Credentials, error) {
	if c.credentials.RefreshToken == "" {
		return models.Credentials{}, connector.ErrNoRefreshToken
	}

	credentials, err := c.auth.RefreshToken(ctx, c.credentials.RefreshToken)
	if err != nil {
		return models.Credentials{}, err
	}

	c.credentials = credentials
	return credentials, nil
}

// FetchAccounts lists accounts and fetches each account's balance. A failed
// balance fetch never drops the account; it is returned with balance zero.
func (c *Connector) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, "/v3/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	now := time.Now().UTC()
	accounts := make([]models.Account, 0, len(resp.Results))
	for _, remote := range resp.Results {
		account := models.Account{
			Id:                 remote.AccountId,
			Name:               remote.DisplayName,
			Type:               mapAccountType(remote.AccountType),
			Institution:        remote.Provider.DisplayName,
			AccountNumberLast4: extractLast4(remote.AccountNumber),
			Balance:            decimal.Zero,
			Currency:           remote.Currency,
			IsActive:           true,
			LastSyncedAt:       &now,
		}

		var balance tlBalance
		if err := c.get(ctx, "/v3/accounts/"+remote.AccountId+"/balance", nil, &balance); err != nil {
			zap.L().Warn("Failed to fetch account balance, continuing with zero",
				zap.String("account_id", remote.AccountId),
				zap.Error(err))
		} else if balance.Current != 0 {
			account.Balance = decimal.NewFromFloat(balance.Current)
		} else {
			account.Balance = decimal.NewFromFloat(balance.Available)
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

// FetchTransactions lists an account's transactions, optionally bounded by a
// date range. Signed remote amounts map to non-negative stored amounts with
// the sign carried by the type.
func (c *Connector) FetchTransactions(ctx context.Context, accountId string, startDate, endDate *time.Time) ([]models.Transaction, error) {
	params := url.Values{}
	if startDate != nil {
		params.Set("from", startDate.UTC().Format(time.RFC3339))
	}
	if endDate != nil {
		params.Set("to", endDate.UTC().Format(time.RFC3339))
	}

	var resp transactionsResponse
	if err := c.get(ctx, "/v3/accounts/"+accountId+"/transactions", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	transactions := make([]models.Transaction, 0, len(resp.Results))
	for _, remote := range resp.Results {
		amount := decimal.NewFromFloat(remote.Amount)
		txType := models.TypeIncome
		if amount.IsNegative() {
			txType = models.TypeExpense
		}

		date, err := time.Parse(time.RFC3339, remote.Timestamp)
		if err != nil {
			zap.L().Warn("Skipping transaction with unparseable timestamp",
				zap.String("transaction_id", remote.TransactionId),
				zap.String("timestamp", remote.Timestamp))
			continue
		}

		transactions = append(transactions, models.Transaction{
			Id:              remote.TransactionId,
			AccountId:       accountId,
			Amount:          amount.Abs(),
			Type:            txType,
			Description:     remote.Description,
			Merchant:        remote.MerchantName,
			TransactionDate: date,
			ExternalId:      remote.TransactionId,
		})
	}

	return transactions, nil
}

func (c *Connector) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.credentials.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}

var accountTypeMap = map[string]string{
	"transaction": "checking",
	"savings":     "savings",
	"credit_card": "credit_card",
	"investment":  "investment",
	"loan":        "loan",
	"mortgage":    "mortgage",
}

func mapAccountType(remoteType string) string {
	if mapped, ok := accountTypeMap[strings.ToLower(remoteType)]; ok {
		return mapped
	}
	return "checking"
}

func extractLast4(accountNumber *tlAccountNumber) string {
	if accountNumber == nil {
		return ""
	}
	number := accountNumber.Number
	if number == "" {
		number = accountNumber.Iban
	}
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
