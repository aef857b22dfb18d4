package truelayer

// Wire types for the TrueLayer data API (api.truelayer.com/v3).

type accountsResponse struct {
	Results []tlAccount `json:"results"`
}

type tlAccount struct {
	AccountId     string           `json:"account_id"`
	AccountType   string           `json:"account_type"`
	DisplayName   string           `json:"display_name"`
	Currency      string           `json:"currency"`
	AccountNumber *tlAccountNumber `json:"account_number,omitempty"`
	Provider      tlProvider       `json:"provider"`
}

type tlAccountNumber struct {
	Iban   string `json:"iban,omitempty"`
	Number string `json:"number,omitempty"`
}

type tlProvider struct {
	DisplayName string `json:"display_name"`
	ProviderId  string `json:"provider_id"`
}

type tlBalance struct {
	Currency  string  `json:"currency"`
	Available float64 `json:"available"`
	Current   float64 `json:"current"`
}

type transactionsResponse struct {
	Results []tlTransaction `json:"results"`
}

type tlTransaction struct {
	TransactionId string  `json:"transaction_id"`
	Timestamp     string  `json:"timestamp"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	MerchantName  string  `json:"merchant_name,omitempty"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
