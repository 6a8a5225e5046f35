package user

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// passwordStructValidation applies the password policy to NewUser, UpdateUser
// and ChangePassword payloads.
func passwordStructValidation(sl validator.StructLevel) {
	switch data := sl.Current().Interface().(type) {
	case NewUser:
		validatePassword(data.Password, data.FirstName, data.LastName, data.Email, sl)
	case UpdateUser:
		validatePassword(data.Password, data.FirstName, data.LastName, data.Email, sl)
	case ChangePassword:
		validatePassword(data.NewPassword, "", "", "", sl, "new_password", "NewPassword")
	}
}

// validatePassword checks minimum length and similarity to user attributes.
func validatePassword(pwd, first, last, email string, sl validator.StructLevel, field ...string) {
	jsonName, structName := "password", "Password"
	if len(field) == 2 {
		jsonName, structName = field[0], field[1]
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, jsonName, structName, tag, "")
	}

	if len(pwd) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, first) >= pwdMaxSim ||
		getRatio(pwd, last) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
