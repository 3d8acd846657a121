// Package openid holds the values shared by the broker flow: auth results,
// brokerage profiles, the provisioning record and its password generator.
package openid

import "strconv"

// Code is the outcome of one authentication attempt.
type Code int

const (
	Failure                  Code = 0
	FailureIdentityNotFound  Code = -1
	FailureIdentityAmbiguous Code = -2
	FailureCredentialInvalid Code = -3
	FailureDuplicateEmail    Code = -4
	FailureUncategorized     Code = -5
	Success                  Code = 1
	SuccessNeedExtraData     Code = 2
)

var codeNames = map[Code]string{
	Failure:                  "FAILURE",
	FailureIdentityNotFound:  "FAILURE_IDENTITY_NOT_FOUND",
	FailureIdentityAmbiguous: "FAILURE_IDENTITY_AMBIGUOUS",
	FailureCredentialInvalid: "FAILURE_CREDENTIAL_INVALID",
	FailureDuplicateEmail:    "FAILURE_DUPLICATE_EMAIL",
	FailureUncategorized:     "FAILURE_UNCATEGORIZED",
	Success:                  "SUCCESS",
	SuccessNeedExtraData:     "SUCCESS_NEED_EXTRA_DATA",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "CODE(" + strconv.Itoa(int(c)) + ")"
}

// Result is the value returned by Broker.Authenticate.
type Result struct {
	code     Code
	identity map[string]any
	messages []string
}

// NewResult builds a result. Codes below FailureUncategorized collapse to
// Failure; anything else is stored as given.
func NewResult(code Code, identity map[string]any, messages ...string) *Result {
	if code < FailureUncategorized {
		code = Failure
	}
	return &Result{code: code, identity: identity, messages: messages}
}

func (r *Result) Code() Code { return r.code }

// IsValid reports a successful outcome (SUCCESS or SUCCESS_NEED_EXTRA_DATA).
func (r *Result) IsValid() bool { return r.code > 0 }

func (r *Result) Identity() map[string]any { return r.identity }

func (r *Result) Messages() []string {
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// WithIdentity replaces the identity payload, leaving code and messages.
// The persistence step uses it to attach the stored user id.
func (r *Result) WithIdentity(identity map[string]any) *Result {
	r.identity = identity
	return r
}
