// Package openid contains the request and response bodies of the openid routes.
package openid

// ResultResponse is the body of a finished callback or completion.
type ResultResponse struct {
	Code     int            `json:"code"`
	Status   string         `json:"status"`
	Identity map[string]any `json:"identity,omitempty"`
	Messages []string       `json:"messages,omitempty"`
}

// PendingResponse is returned when the provider needs the extra form.
type PendingResponse struct {
	Code     int    `json:"code"`
	Status   string `json:"status"`
	Ticket   string `json:"ticket"`
	Provider string `json:"provider"`
}

type CompleteRequest struct {
	Ticket string `json:"ticket"`
	Email  string `json:"email"`
}

type ProvidersResponse struct {
	Providers  []string `json:"providers"`
	Brokerages []string `json:"brokerages"`
}
