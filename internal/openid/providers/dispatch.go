package providers

import (
	"fmt"
	"strings"
)

type factory func(src Source, cfg settings) (Provider, error)

// rule binds an identity substring to a provider. Several markers can
// appear in one identity; the first rule in table order wins.
type rule struct {
	marker string
	name   string
	build  factory
}

var rules = []rule{
	{"google", "Google", newGoogle},
	{"vkontakte", "Vkontakte", newVkontakte},
	{"mail.ru", "MailRu", newMailRu},
	{"yandex.ru", "Yandex", newYandex},
	{"facebook", "Facebook", newFacebook},
	{"twitter", "Twitter", newTwitter},
	{"myopenid", "MyOpenid", newMyOpenid},
	{"aol", "Aol", newAol},
	{"yahoo", "Yahoo", newYahoo},
	{"wmkeeper", "Webmoney", newWebmoney},
	{"loginza", "Loginza", newLoginza},
	{"rambler", "Rambler", newRambler},
}

// Names lists provider display names in dispatch order.
func Names() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

// ByIdentity resolves the provider whose marker occurs in the identity URL
// of src's profile. A fresh provider bound to src is returned on each call.
func ByIdentity(src Source, opts ...Option) (Provider, error) {
	field := src.IdentityFieldName()
	if !src.Profile().Has(field) {
		return nil, fmt.Errorf("%w: %s field does not exist in user data, maybe the token is expired", ErrIdentityFieldMissing, field)
	}
	identity := IdentityURL(src)
	for _, r := range rules {
		if strings.Contains(identity, r.marker) {
			return r.build(src, applyOptions(opts))
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, identity)
}

// ByName resolves a provider by its exact display name.
func ByName(name string, src Source, opts ...Option) (Provider, error) {
	for _, r := range rules {
		if r.name == name {
			return r.build(src, applyOptions(opts))
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	return s
}
