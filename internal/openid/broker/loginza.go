package broker

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/openidgate/internal/openid"
)

const BrokerageLoginza = "loginza"

// Loginza answers with a flat JSON profile; the whole body is the profile.
type Loginza struct{}

func (Loginza) Name() string { return BrokerageLoginza }

func (Loginza) Options() Options {
	return Options{
		Protocol:      "http",
		Host:          "loginza.ru",
		Path:          "/api/authinfo",
		Method:        http.MethodPost,
		IdentityField: "identity",
		Params:        openid.NewParams(),
	}
}

func (Loginza) NormalizeUserData(body []byte) (openid.BrokerProfile, error) {
	var p openid.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return openid.BrokerProfile{}, err
	}
	return openid.BrokerProfile{Profile: p}, nil
}

// IsValid rejects Loginza's error envelope ({"error_type": ..., "error_message": ...}).
func (Loginza) IsValid(p openid.BrokerProfile) bool {
	return p.Profile != nil && !p.Profile.Has("error_type")
}
