package validation

import "testing"

func TestValidEmail(t *testing.T) {
	valids := []string{"a@b.c", "johndoe@mail.ru", "j.doe+tag@example.co.uk", " jd@example.com "}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", "nope", "not-an-email", "a@b", "a b@c.d", "John <j@d.com>", "a@b.c."}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}
