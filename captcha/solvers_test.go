package captcha

import "testing"

func TestResponseTokenSelector_KnownTypes(t *testing.T) {
	cases := map[Type]string{
		TypeRecaptchaV2:         "#g-recaptcha-response, textarea[name='g-recaptcha-response']",
		TypeHCaptcha:            "textarea[name='h-captcha-response'], [name='h-captcha-response']",
		TypeCloudflareTurnstile: "input[name='cf-turnstile-response']",
	}
	for typ, want := range cases {
		if got := responseTokenSelector(typ); got != want {
			t.Errorf("responseTokenSelector(%q) = %q, want %q", typ, got, want)
		}
	}
}

func TestResponseTokenSelector_UnknownTypeReturnsEmpty(t *testing.T) {
	if got := responseTokenSelector(TypeSlider); got != "" {
		t.Errorf("responseTokenSelector(slider) = %q, want empty (slider has no hidden response token)", got)
	}
}
