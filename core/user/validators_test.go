package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendix/attendix/core"
)

func TestPasswordPolicyViolation(t *testing.T) {
	tests := []struct {
		pwd   string
		attrs []string
		want  string
	}{
		{"Sh0rt!", nil, pwdMinLenTag},
		{"Has Space1!", nil, pwdNoSpaceTag},
		{"1234567890", nil, pwdNotAllNumTag},
		{"alllowercase1!", nil, pwdComplexityTag},
		{"NoDigits!!", nil, pwdComplexityTag},
		{"NoSpecial123", nil, pwdComplexityTag},
		{"Adaline#2025", []string{"Adaline2025"}, pwdAttrSimTag},
		{"Adaline#2025", []string{"", "Acme"}, ""},
		{"C0mpl3x!Pass", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			assert.Equal(t, tt.want, passwordPolicyViolation(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewAdmin_Validate(t *testing.T) {
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	InitValidators(validate, translator)

	na := NewAdmin{OrganizationName: " Acme ", Name: " Ada ", Email: " ADA@Acme.test ", Password: "C0mpl3x!Pass"}
	require.NoError(t, na.Validate(validate))
	assert.Equal(t, "Acme", na.OrganizationName)
	assert.Equal(t, "ada@acme.test", na.Email)

	na.Password = "password"
	assert.Error(t, na.Validate(validate))

	rp := ResetPassword{Email: "ada@acme.test", Password: "12345678"}
	assert.Error(t, rp.Validate(validate))
}
