package broker

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const BrokerageRpxnow = "rpxnow"

// Rpxnow (Janrain Engage) answers {"stat": "ok", "profile": {...}}, or
// {"stat": "fail", "err": {...}} on error.
type Rpxnow struct {
	APIKey string
}

func (Rpxnow) Name() string { return BrokerageRpxnow }

func (r Rpxnow) Options() Options {
	key := r.APIKey
	if key == "" {
		key = "yourapikey"
	}
	return Options{
		Protocol:      "https",
		Host:          "rpxnow.com",
		Path:          "/api/v2/auth_info",
		Method:        http.MethodPost,
		IdentityField: "identifier",
		Params:        openid.NewParams("apiKey", key, "format", "json"),
	}
}

type rpxResponse struct {
	Stat    string          `json:"stat"`
	Profile openid.Profile  `json:"profile"`
	Err     json.RawMessage `json:"err"`
}

// NormalizeUserData keeps the response as-is. An "err" member is carried
// into the profile so IsValid can see it.
func (Rpxnow) NormalizeUserData(body []byte) (openid.BrokerProfile, error) {
	var resp rpxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return openid.BrokerProfile{}, err
	}
	p := resp.Profile
	if p == nil {
		p = openid.Profile{}
	}
	if len(resp.Err) > 0 {
		var e any
		_ = json.Unmarshal(resp.Err, &e)
		p["err"] = e
	}
	return openid.BrokerProfile{Profile: p}, nil
}

func (Rpxnow) IsValid(p openid.BrokerProfile) bool {
	return !p.Profile.Has("err")
}
